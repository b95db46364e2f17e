package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"edu_admin/internal/common"
)

// Lỗi common.Error phải giữ nguyên status code và error code trong envelope
func TestHandleErrorResponseCustomError(t *testing.T) {
	app := fiber.New()
	app.Get("/err", func(c fiber.Ctx) error {
		HandleErrorResponse(c, common.ErrRunConflict)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
	if err != nil {
		t.Fatalf("app.Test lỗi: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != common.StatusConflict {
		t.Errorf("muốn status %d, nhận %d", common.StatusConflict, resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("không decode được body: %v", err)
	}
	if body["code"] != common.ErrCodeSyncConflict.Code {
		t.Errorf("muốn code %s, nhận %v", common.ErrCodeSyncConflict.Code, body["code"])
	}
	if body["status"] != "error" {
		t.Errorf("status envelope phải là error, nhận %v", body["status"])
	}
}

// Lỗi không phải common.Error rơi về internal server error
func TestHandleErrorResponseGenericError(t *testing.T) {
	app := fiber.New()
	app.Get("/err", func(c fiber.Ctx) error {
		HandleErrorResponse(c, errors.New("hỏng"))
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/err", nil))
	if err != nil {
		t.Fatalf("app.Test lỗi: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != common.StatusInternalServerError {
		t.Errorf("muốn status %d, nhận %d", common.StatusInternalServerError, resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("không decode được body: %v", err)
	}
	if body["code"] != common.ErrCodeInternalServer.Code {
		t.Errorf("muốn code %s, nhận %v", common.ErrCodeInternalServer.Code, body["code"])
	}
}
