package navigation

import (
	"inmova_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Response is the navigation payload of the current user.
type Response struct {
	Role         string        `json:"role"`
	Sidebar      []Section     `json:"sidebar"`
	QuickActions []QuickAction `json:"quickActions"`
}

type Handler struct {
	table *Table
}

func NewHandler(table *Table) *Handler {
	return &Handler{table: table}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
}

// Get returns the navigation of the caller's highest role.
// GET /api/v1/navigation
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	role := h.table.HighestRole(identity.Roles())
	httpkit.OK(c, Response{
		Role:         role,
		Sidebar:      h.table.Sidebar(role),
		QuickActions: h.table.QuickActions(role),
	})
}
