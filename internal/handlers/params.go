package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/fields"
)

// parseID reads a numeric path parameter, writing a 400 when it is malformed
func parseID(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// FieldValueRequest sets one task field. Value is validated against the schema.
type FieldValueRequest struct {
	FieldID uint64 `json:"field_id" binding:"required"`
	Value   any    `json:"value"`
}

func toEdits(reqs []FieldValueRequest) []fields.Edit {
	if len(reqs) == 0 {
		return nil
	}
	edits := make([]fields.Edit, len(reqs))
	for i, r := range reqs {
		edits[i] = fields.Edit{FieldID: r.FieldID, Raw: r.Value}
	}
	return edits
}
