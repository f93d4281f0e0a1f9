package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"skillsync/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestJWTRoundTrip(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s", JWTTTLHours: 1}

	token, err := GenerateJWTToken("user-1", "a@b.c", cfg)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.c", claims.Email)

	_, err = ParseJWTToken(token, &config.Config{JWTSecret: "other"})
	assert.Error(t, err)
}

func TestExtractClaimsFromToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s", JWTTTLHours: 1}
	token, err := GenerateJWTToken("user-1", "", cfg)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		claims, err := ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return Unauthorized(c, err.Error())
		}
		return c.SendString(claims.UserID)
	})

	cases := map[string]func(r *http.Request){
		"raw header":    func(r *http.Request) { r.Header.Set("Authorization", token) },
		"bearer header": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		"cookie":        func(r *http.Request) { r.Header.Set("Cookie", TokenCookie+"="+token) },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			setup(req)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		})
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"max=3"`
	}

	assert.Nil(t, ValidateStruct(input{Email: "a@b.co", Name: "abc"}))

	errs := ValidateStruct(input{Name: "abcd"})
	assert.Equal(t, "is required", errs["email"])
	assert.Equal(t, "must be at most 3 characters", errs["name"])
}

func TestInitLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LoggerConfig{Format: "json", Output: &buf})
	logger.Printf("enrolled %s", "user-1")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "enrolled user-1", entry["msg"])
	assert.Equal(t, "skillsync", entry["service"])
	assert.NotEmpty(t, entry["time"])
}

func TestInitLoggerText(t *testing.T) {
	var buf bytes.Buffer
	InitLogger(LoggerConfig{Output: &buf}).Print("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "[SkillSync] "))
	assert.Contains(t, buf.String(), "hello")
}

func TestDBLoggerSkipsMisses(t *testing.T) {
	var buf bytes.Buffer
	db, err := openDB(&config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "log.db")}, gormLogger(&buf))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	type row struct {
		ID   uint
		Name string
	}
	require.NoError(t, db.AutoMigrate(&row{}))

	var r row
	err = db.Where("name = ?", "missing").First(&r).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "record not found")

	err = db.Table("no_such_table").First(&r).Error
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "no such table")
}
