package basehdl

// Package basehdl - base CRUD handlers.
// Package này cung cấp các chức năng CRUD cơ bản và các tiện ích để xử lý request/response.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "edu_admin/internal/api/base/service"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
	"edu_admin/internal/utility"
)

// BaseHandler cung cấp các handler CRUD chung cho một Model.
// Type Parameters:
//   - T: Kiểu dữ liệu của model
//   - CreateInput: DTO cho thao tác tạo mới
//   - UpdateInput: DTO cho thao tác cập nhật
type BaseHandler[T any, CreateInput any, UpdateInput any] struct {
	BaseService basesvc.BaseServiceMongo[T]
}

// NewBaseHandler tạo mới một BaseHandler
func NewBaseHandler[T any, CreateInput any, UpdateInput any](service basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput, UpdateInput] {
	return &BaseHandler[T, CreateInput, UpdateInput]{
		BaseService: service,
	}
}

// ParseRequestBody parse và validate dữ liệu từ request body.
// Sử dụng json.Decoder với UseNumber() để xử lý chính xác các số.
//
// Parameters:
// - c: Fiber context
// - input: Con trỏ tới struct sẽ chứa dữ liệu được parse
//
// Returns:
// - error: Lỗi nếu có trong quá trình parse hoặc validate
func ParseRequestBody(c fiber.Ctx, input interface{}) error {
	body := c.Body()
	reader := bytes.NewReader(body)
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}

	// Validate chi tiết input theo struct tag `validate`
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err.Error())
	}

	return nil
}

// ParseObjectID parse ObjectID từ URI param.
//
// Parameters:
// - c: Fiber context
// - name: Tên param trên URI (ví dụ: "id")
func ParseObjectID(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	idStr := c.Params(name)
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Tham số %s không phải ObjectID hợp lệ: %s", name, idStr),
			common.StatusBadRequest,
			err,
		)
	}
	return id, nil
}

// ParsePagination lấy page và limit từ query string (mặc định page=1, limit=50)
func ParsePagination(c fiber.Ctx) (page int64, limit int64) {
	page = 1
	limit = 50
	if v, err := strconv.ParseInt(c.Query("page", "1"), 10, 64); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.ParseInt(c.Query("limit", "50"), 10, 64); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	return page, limit
}

// transformInputToModel chuyển DTO sang Model qua vòng BSON.
// DTO và Model dùng chung bson tag nên mapping field là 1-1.
func (h *BaseHandler[T, CreateInput, UpdateInput]) transformInputToModel(input interface{}) (*T, error) {
	raw, err := bson.Marshal(input)
	if err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat, "Lỗi transform dữ liệu", common.StatusBadRequest, err)
	}
	var model T
	if err := bson.Unmarshal(raw, &model); err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat, "Lỗi transform dữ liệu", common.StatusBadRequest, err)
	}
	return &model, nil
}

// InsertOne thêm mới một document vào database.
// Dữ liệu được parse từ request body (DTO CreateInput) và transform sang Model trước khi thêm vào DB.
func (h *BaseHandler[T, CreateInput, UpdateInput]) InsertOne(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		var input CreateInput
		if err := ParseRequestBody(c, &input); err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		model, err := h.transformInputToModel(&input)
		if err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.InsertOne(c.Context(), *model)
		HandleResponse(c, data, err)
		return nil
	})
}

// FindOneById tìm document theo ObjectID trên URI
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindOneById(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c, "id")
		if err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		data, err := h.BaseService.FindOneById(c.Context(), id)
		HandleResponse(c, data, err)
		return nil
	})
}

// FindWithPagination tìm danh sách document với phân trang
func (h *BaseHandler[T, CreateInput, UpdateInput]) FindWithPagination(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		filter, err := h.processFilter(c)
		if err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		page, limit := ParsePagination(c)
		data, err := h.BaseService.FindWithPagination(c.Context(), filter, page, limit, nil)
		HandleResponse(c, data, err)
		return nil
	})
}

// UpdateById cập nhật document theo ObjectID trên URI.
// Chỉ các field có mặt trong body được cập nhật (partial update).
func (h *BaseHandler[T, CreateInput, UpdateInput]) UpdateById(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c, "id")
		if err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		var input UpdateInput
		if err := ParseRequestBody(c, &input); err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		// Chuyển DTO thành map, bỏ các field zero để partial update
		updateMap, err := utility.ToMap(&input)
		if err != nil {
			HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}

		data, err := h.BaseService.UpdateById(c.Context(), id, updateMap)
		HandleResponse(c, data, err)
		return nil
	})
}

// DeleteById xóa document theo ObjectID trên URI
func (h *BaseHandler[T, CreateInput, UpdateInput]) DeleteById(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := ParseObjectID(c, "id")
		if err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		err = h.BaseService.DeleteById(c.Context(), id)
		HandleResponse(c, nil, err)
		return nil
	})
}

// processFilter xử lý và validate filter từ query string (filter={"field":"value"})
func (h *BaseHandler[T, CreateInput, UpdateInput]) processFilter(c fiber.Ctx) (map[string]interface{}, error) {
	var filter map[string]interface{}

	filterStr := c.Query("filter", "{}")
	if err := json.Unmarshal([]byte(filterStr), &filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter không đúng định dạng JSON. Chi tiết lỗi: %v. Giá trị filter nhận được: %s", err, filterStr),
			common.StatusBadRequest,
			err,
		)
	}

	// Normalize: chuyển string ObjectId (hex 24 ký tự ở field _id / *_Id) thành ObjectID
	for key, value := range filter {
		strValue, ok := value.(string)
		if !ok {
			continue
		}
		if key == "_id" || len(key) > 2 && key[len(key)-2:] == "Id" {
			if oid, err := primitive.ObjectIDFromHex(strValue); err == nil {
				filter[key] = oid
			}
		}
	}

	return filter, nil
}
