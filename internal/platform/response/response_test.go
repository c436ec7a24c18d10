package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError_MapsDomainCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("bad"), http.StatusBadRequest, domain.CodeValidation},
		{"not found", domain.NewNotFoundError("Booking", "1"), http.StatusNotFound, domain.CodeNotFound},
		{"unauthorized transition", domain.NewUnauthorizedTransitionError("pending", "accepted"), http.StatusForbidden, domain.CodeUnauthorizedTransition},
		{"invalid state", domain.NewInvalidStateError("completed", "cancelled"), http.StatusConflict, domain.CodeInvalidState},
		{"wrapped conflict", fmt.Errorf("x: %w", domain.NewConflictError("raced")), http.StatusConflict, domain.CodeConflict},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestPaginated_Meta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(c, []int{1, 2}, 5, 1, 2)

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
}
