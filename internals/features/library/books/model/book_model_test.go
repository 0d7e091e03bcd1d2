package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestReservationQueueRoundTrip(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()

	var b BookModel
	b.SetReservationQueue([]uuid.UUID{u1, u2})
	assert.Equal(t, []uuid.UUID{u1, u2}, b.ReservationQueue())

	b.SetReservationQueue(nil)
	assert.Empty(t, b.ReservationQueue())
	assert.JSONEq(t, "[]", string(b.BookReservationQueue), "nil tetap dipersist sebagai array kosong")
}

func TestReservationQueueCorruptPayload(t *testing.T) {
	b := BookModel{BookReservationQueue: datatypes.JSON(`{"bukan":"array"}`)}
	assert.Nil(t, b.ReservationQueue())

	b.BookReservationQueue = nil
	assert.Nil(t, b.ReservationQueue())
}

func TestQueueContains(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()

	var b BookModel
	b.SetReservationQueue([]uuid.UUID{u1})

	assert.True(t, b.QueueContains(u1))
	assert.False(t, b.QueueContains(u2))
}
