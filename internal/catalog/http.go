package catalog

import (
	"net/http"

	httperrors "github.com/gokatarajesh/trabalho-quiz/pkg/http/errors"
)

// HandleList serves GET /api/categories.
func (c *Catalog) HandleList(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, c.Summaries())
}
