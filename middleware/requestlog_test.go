package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"museum-ticketing/database"
	"museum-ticketing/logger"
	logModel "museum-ticketing/models/log"
	"museum-ticketing/types"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupLogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestRequestLoggerPersistsEntries(t *testing.T) {
	db := setupLogTestDB(t)
	asyncLogger := logger.NewAsyncLogger(db)
	go asyncLogger.ProcessLog()

	app := fiber.New()
	app.Post("/api/orders", RequestLogger(asyncLogger), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
			Status:  fiber.StatusCreated,
			Message: "Order created successfully",
		})
	})

	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"ticket_type_id":1,"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// The write happens on the logger goroutine.
	var entry logModel.Log
	require.Eventually(t, func() bool {
		return db.First(&entry).Error == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "POST", entry.Method)
	assert.Equal(t, "/api/orders", entry.URL)
	assert.Equal(t, fiber.StatusCreated, entry.StatusCode)
	assert.Contains(t, entry.RequestBody, `"quantity":2`)
	assert.Contains(t, entry.ResponseBody, "Order created successfully")
}

func TestRequestLoggerRecordsActorAndStripsFileContent(t *testing.T) {
	db := setupLogTestDB(t)
	asyncLogger := logger.NewAsyncLogger(db)
	go asyncLogger.ProcessLog()

	t.Setenv("JWT_SECRET", testSecret)

	app := fiber.New()
	app.Post("/api/upload", RequestLogger(asyncLogger), RequireAuthentication(), func(c *fiber.Ctx) error {
		return c.JSON(types.ApiResponse{Status: fiber.StatusOK, Message: "ok"})
	})

	body := strings.Join([]string{
		"--boundary",
		`Content-Disposition: form-data; name="transaction_ref"`,
		"",
		"TXN123",
		"--boundary",
		`Content-Disposition: form-data; name="proof"; filename="receipt.png"`,
		"Content-Type: image/png",
		"",
		"raw-image-bytes",
		"--boundary--",
		"",
	}, "\r\n")

	req := httptest.NewRequest("POST", "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")
	req.Header.Set("Authorization", "Bearer "+signToken(t, 101, []string{"purchase"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var entry logModel.Log
	require.Eventually(t, func() bool {
		return db.First(&entry).Error == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "tester", entry.Actor)
	assert.Contains(t, entry.RequestBody, "TXN123")
	assert.Contains(t, entry.RequestBody, "receipt.png")
	assert.Contains(t, entry.RequestBody, "[FILE_CONTENT_REMOVED]")
	assert.NotContains(t, entry.RequestBody, "raw-image-bytes")
}
