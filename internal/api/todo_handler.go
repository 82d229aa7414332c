package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"firmflow/internal/repository"
)

type TodoHandler struct {
	todoRepo *repository.TodoRepository
}

func NewTodoHandler(todoRepo *repository.TodoRepository) *TodoHandler {
	return &TodoHandler{
		todoRepo: todoRepo,
	}
}

// GetTodos handles GET /todos?assignee=<employee id>
func (h *TodoHandler) GetTodos(c *gin.Context) {
	assignee := c.Query("assignee")
	if assignee == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assignee query parameter required"})
		return
	}

	todos, err := h.todoRepo.FindByAssignee(c.Request.Context(), assignee)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch todos"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"todos": todos})
}
