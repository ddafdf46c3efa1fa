package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/tasklist/internal/models"
	"github.com/adanyl0v/tasklist/internal/services"
)

// maxBodyBytes caps the size of a task or reorder request body.
const maxBodyBytes = 1 << 20

// mutableTaskFields is the set of field names a task body may carry.
var mutableTaskFields = []string{
	"title",
	"description",
	"completed",
	"priority",
	"dueDate",
	"category",
	"order",
}

type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	DueDate     *string   `json:"dueDate"`
	Order       int64     `json:"order"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    string(task.Priority),
		Category:    string(task.Category),
		Order:       task.Order,
		Owner:       task.OwnerID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(models.DateLayout)
		resp.DueDate = &dueDate
	}
	return resp
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	tasks, err := h.tasks.GetTasks(c, userID, services.TaskQueryParams{
		Completed: c.Query("completed"),
		Category:  c.Query("category"),
		Priority:  c.Query("priority"),
		SortBy:    c.Query("sortBy"),
	})
	if err != nil {
		h.abortServiceError(c, err)
		return
	}

	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	fields, err := readTaskFields(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to read task body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	verr := &services.ValidationError{}
	checkUnknownFields(verr, fields)
	var params services.CreateTaskParams
	decodeString(verr, fields, "title", &params.Title)
	params.Description = decodeOptionalString(verr, fields, "description")
	params.Completed = decodeOptionalBool(verr, fields, "completed")
	params.Priority = decodeEnum(verr, fields, "priority")
	params.Category = decodeEnum(verr, fields, "category")
	params.DueDate, _ = decodeNullableString(verr, fields, "dueDate")
	params.Order = decodeOptionalInt(verr, fields, "order")
	services.ValidateCreateTask(verr, params)
	if verr.HasErrors() {
		abortValidation(c, verr)
		return
	}

	task, err := h.tasks.CreateTask(c, userID, params)
	if err != nil {
		h.abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("task id required"))
		return
	}

	fields, err := readTaskFields(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to read task body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	verr := &services.ValidationError{}
	checkUnknownFields(verr, fields)
	var params services.UpdateTaskParams
	if _, ok := fields["title"]; ok {
		params.Title = new(string)
		decodeString(verr, fields, "title", params.Title)
	}
	params.Description = decodeOptionalString(verr, fields, "description")
	params.Completed = decodeOptionalBool(verr, fields, "completed")
	params.Priority = decodeEnum(verr, fields, "priority")
	params.Category = decodeEnum(verr, fields, "category")
	var dueDateNull bool
	params.DueDate, dueDateNull = decodeNullableString(verr, fields, "dueDate")
	params.ClearDueDate = dueDateNull
	params.Order = decodeOptionalInt(verr, fields, "order")
	services.ValidateUpdateTask(verr, params)
	if verr.HasErrors() {
		abortValidation(c, verr)
		return
	}

	task, err := h.tasks.UpdateTask(c, userID, taskID, params)
	if err != nil {
		h.abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		h.logger.Error().Msg("no task id provided")
		abort(c, newBadRequestError("task id required"))
		return
	}

	err := h.tasks.DeleteTask(c, userID, taskID)
	if err != nil {
		h.abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

type reorderRequest struct {
	Tasks json.RawMessage `json:"tasks"`
}

type reorderItemRequest struct {
	ID    string `json:"id"`
	Order *int64 `json:"order"`
}

func (h *handlerImpl) HandleReorderTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	limitBody(c)

	var req reorderRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	raw := bytes.TrimSpace(req.Tasks)
	if len(raw) == 0 || raw[0] != '[' {
		h.logger.Error().Msg("tasks is not an array")
		abort(c, newBadRequestError("tasks must be an array"))
		return
	}

	var itemsReq []reorderItemRequest
	err = json.Unmarshal(raw, &itemsReq)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to decode reorder items")
		abort(c, newBadRequestError("tasks must be an array of {id, order}"))
		return
	}

	items := make([]models.ReorderItem, len(itemsReq))
	for i, item := range itemsReq {
		items[i].ID = item.ID
		if item.Order != nil {
			items[i].Order = *item.Order
		}
	}

	verr := &services.ValidationError{}
	services.ValidateReorderItems(verr, items)
	for i, item := range itemsReq {
		if item.Order == nil {
			verr.Add(fmt.Sprintf("tasks[%d].order", i), "is required")
		}
	}
	if verr.HasErrors() {
		abortValidation(c, verr)
		return
	}

	err = h.tasks.ReorderTasks(c, userID, items)
	if err != nil {
		h.abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tasks reordered"})
}

// readTaskFields decodes the body as a JSON object keyed by field name.
func readTaskFields(c *gin.Context) (map[string]json.RawMessage, error) {
	limitBody(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	err = json.Unmarshal(body, &fields)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("body must be a json object")
	}
	return fields, nil
}

// checkUnknownFields reports every field outside mutableTaskFields so that
// such a request is rejected as a whole.
func checkUnknownFields(verr *services.ValidationError, fields map[string]json.RawMessage) {
	var unknown []string
	for name := range fields {
		if !slices.Contains(mutableTaskFields, name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		verr.Add(name, "is not an allowed field")
	}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func decodeString(verr *services.ValidationError, fields map[string]json.RawMessage, name string, dst *string) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	if json.Unmarshal(raw, dst) != nil || isNull(raw) {
		verr.Add(name, "must be a string")
	}
}

func decodeOptionalString(verr *services.ValidationError, fields map[string]json.RawMessage, name string) *string {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var s string
	if isNull(raw) {
		return &s
	}
	if json.Unmarshal(raw, &s) != nil {
		verr.Add(name, "must be a string")
		return nil
	}
	return &s
}

// decodeNullableString reports an explicit null separately from absence.
func decodeNullableString(verr *services.ValidationError, fields map[string]json.RawMessage, name string) (*string, bool) {
	raw, ok := fields[name]
	if !ok {
		return nil, false
	}
	if isNull(raw) {
		return nil, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		verr.Add(name, "must be a string")
		return nil, false
	}
	return &s, false
}

func decodeOptionalBool(verr *services.ValidationError, fields map[string]json.RawMessage, name string) *bool {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var b bool
	if isNull(raw) || json.Unmarshal(raw, &b) != nil {
		verr.Add(name, "must be a boolean")
		return nil
	}
	return &b
}

func decodeOptionalInt(verr *services.ValidationError, fields map[string]json.RawMessage, name string) *int64 {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var n int64
	if isNull(raw) || json.Unmarshal(raw, &n) != nil {
		verr.Add(name, "must be an integer")
		return nil
	}
	return &n
}

func decodeEnum(verr *services.ValidationError, fields map[string]json.RawMessage, name string) *string {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		verr.Add(name, "must be a string")
		return nil
	}
	return &s
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
}
