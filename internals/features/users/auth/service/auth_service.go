// internals/features/users/auth/service/auth_service.go
package service

import (
	"errors"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"perpusku_backend/internals/configs"
	authDTO "perpusku_backend/internals/features/users/auth/dto"
	authRepo "perpusku_backend/internals/features/users/auth/repository"
	userModel "perpusku_backend/internals/features/users/user/model"
	helper "perpusku_backend/internals/helpers"
	logger "perpusku_backend/internals/loggers"
)

var validate = validator.New()

// ========================== REGISTER ==========================
func Register(db *gorm.DB, c *fiber.Ctx) error {
	var req authDTO.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal hash password")
	}

	user := userModel.UserModel{
		UserName: req.UserName,
		Email:    req.Email,
		Password: string(hashed),
		IsActive: true,
	}
	if err := authRepo.CreateUser(db, &user); err != nil {
		if isUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "Email atau username sudah terdaftar")
		}
		logger.Logger.Error("register: gagal simpan user: ", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mendaftarkan user")
	}

	return helper.JsonCreated(c, "Registrasi berhasil", authDTO.ToAuthUserResponse(&user))
}

// ========================== LOGIN ==========================
func Login(db *gorm.DB, c *fiber.Ctx) error {
	var req authDTO.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	user, err := authRepo.FindUserByEmailOrUsername(db, strings.TrimSpace(req.Identifier))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Email/username atau password salah")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data user")
	}
	if !user.IsActive {
		return helper.JsonError(c, fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Email/username atau password salah")
	}

	token, exp, err := IssueAccessToken(user)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	setAccessCookie(c, token, exp)

	return helper.JsonOK(c, "Login berhasil", authDTO.LoginResponse{
		AccessToken: token,
		User:        authDTO.ToAuthUserResponse(user),
	})
}

// ========================== LOGIN GOOGLE ==========================
// Tukar Google ID token (dari klien) dengan access token internal.
func LoginGoogle(db *gorm.DB, c *fiber.Ctx) error {
	var req authDTO.LoginGoogleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if strings.TrimSpace(req.IDToken) == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "id_token wajib diisi")
	}
	if configs.GoogleClientID == "" {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Login Google belum dikonfigurasi")
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(req.IDToken, []string{configs.GoogleClientID}); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Google ID token tidak valid")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(req.IDToken)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Gagal decode Google ID token")
	}

	user, err := authRepo.FindUserByGoogleID(db, claimSet.Sub)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// belum pernah login Google: coba tautkan via email, kalau tidak ada buat user baru
		user, err = authRepo.FindUserByEmail(db, strings.ToLower(claimSet.Email))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			randomPass, hashErr := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
			if hashErr != nil {
				return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat user")
			}
			googleID := claimSet.Sub
			newUser := userModel.UserModel{
				UserName: strings.TrimSpace(claimSet.Name),
				Email:    strings.ToLower(claimSet.Email),
				Password: string(randomPass),
				GoogleID: &googleID,
				IsActive: true,
			}
			if err := authRepo.CreateUser(db, &newUser); err != nil {
				logger.Logger.Error("login-google: gagal simpan user: ", err)
				return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat user")
			}
			user = &newUser
		} else if err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data user")
		} else {
			googleID := claimSet.Sub
			user.GoogleID = &googleID
			if err := db.Model(user).Update("google_id", googleID).Error; err != nil {
				logger.Logger.Warn("login-google: gagal tautkan google_id: ", err)
			}
		}
	} else if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data user")
	}

	if !user.IsActive {
		return helper.JsonError(c, fiber.StatusForbidden, "Akun Anda telah dinonaktifkan")
	}

	token, exp, err := IssueAccessToken(user)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	setAccessCookie(c, token, exp)

	return helper.JsonOK(c, "Login berhasil", authDTO.LoginResponse{
		AccessToken: token,
		User:        authDTO.ToAuthUserResponse(user),
	})
}

// ========================== LOGOUT ==========================
// Masukkan access token aktif ke blacklist sampai kadaluarsa.
func Logout(db *gorm.DB, c *fiber.Ctx) error {
	tokenString := strings.TrimSpace(c.Get("Authorization"))
	if after, ok := strings.CutPrefix(tokenString, "Bearer "); ok {
		tokenString = strings.TrimSpace(after)
	} else if cookieTok := c.Cookies("access_token"); cookieTok != "" {
		tokenString = cookieTok
	}
	if tokenString == "" {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Tidak ada token")
	}

	// ambil exp supaya blacklist bisa dibersihkan setelah token mati sendiri
	expiredAt := nowUTC().Add(accessTTLDefault)
	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(configs.JWTSecret), nil
	}); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			expiredAt = time.Unix(int64(exp), 0).UTC()
		}
	}

	if err := authRepo.BlacklistToken(db, tokenString, expiredAt); err != nil && !isUniqueViolation(err) {
		logger.Logger.Error("logout: gagal blacklist token: ", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal logout")
	}
	clearAccessCookie(c)

	return helper.JsonOK(c, "Logout berhasil", nil)
}

// ========================== CHANGE PASSWORD ==========================
func ChangePassword(db *gorm.DB, c *fiber.Ctx) error {
	var req authDTO.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	user, err := authRepo.FindUserByID(db, userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User tidak ditemukan")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Password lama salah")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal hash password baru")
	}
	if err := authRepo.UpdateUserPassword(db, userID, string(newHash)); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal update password")
	}

	return helper.JsonUpdated(c, "Password berhasil diubah", nil)
}
