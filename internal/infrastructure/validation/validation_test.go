package validation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/tasklist/core/internal/ports"
)

func TestRGBHexRule(t *testing.T) {
	v := New()

	valid := []string{"#FF0000", "#ff00aa", "#3B82f6"}
	for _, c := range valid {
		assert.NoError(t, v.Struct(ports.CreateTagRequest{Name: "work", Color: c}), c)
	}

	invalid := []string{"red", "#FFF", "FF0000", "#GG0000", "#FF00000", ""}
	for _, c := range invalid {
		assert.Error(t, v.Struct(ports.CreateTagRequest{Name: "work", Color: c}), c)
	}
}

func TestMonthlyReportBounds(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(ports.MonthlyReportRequest{Year: 2024, Month: 1}))
	assert.NoError(t, v.Struct(ports.MonthlyReportRequest{Year: 2100, Month: 12}))

	assert.Error(t, v.Struct(ports.MonthlyReportRequest{Year: 2024, Month: 0}))
	assert.Error(t, v.Struct(ports.MonthlyReportRequest{Year: 2024, Month: 13}))
	assert.Error(t, v.Struct(ports.MonthlyReportRequest{Year: 2019, Month: 5}))
	assert.Error(t, v.Struct(ports.MonthlyReportRequest{Year: 2101, Month: 5}))
}

func TestTodoRequests(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(ports.CreateTodoRequest{Title: "Buy milk", Priority: "urgent"}))
	assert.Error(t, v.Struct(ports.CreateTodoRequest{Title: "", Priority: "urgent"}))
	assert.Error(t, v.Struct(ports.CreateTodoRequest{Title: "Buy milk", Priority: "high"}))

	assert.NoError(t, v.Struct(ports.ListTodosRequest{}))
	assert.NoError(t, v.Struct(ports.ListTodosRequest{Filter: "active", PriorityFilter: "not-urgent"}))
	assert.Error(t, v.Struct(ports.ListTodosRequest{Filter: "done"}))

	assert.Error(t, v.Struct(ports.UpdateTodoRequest{}))
	empty := ""
	assert.Error(t, v.Struct(ports.UpdateTodoRequest{ID: uuid.New(), Title: &empty}))
	assert.NoError(t, v.Struct(ports.UpdateTodoRequest{ID: uuid.New()}))
}

func TestRegisterRequest(t *testing.T) {
	v := New()

	ok := ports.RegisterRequest{Email: "ana@example.com", Password: "secret1", Name: "Ana", Age: 30, HowFound: "Friend"}
	assert.NoError(t, v.Struct(ok))

	short := ok
	short.Password = "12345"
	assert.Error(t, v.Struct(short))

	badEmail := ok
	badEmail.Email = "not-an-email"
	assert.Error(t, v.Struct(badEmail))

	noAge := ok
	noAge.Age = 0
	assert.Error(t, v.Struct(noAge))
}

func TestIsRGBHex(t *testing.T) {
	assert.True(t, IsRGBHex("#abcdef"))
	assert.False(t, IsRGBHex("#abcde"))
}
