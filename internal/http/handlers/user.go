package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillhub-backend/internal/http/response"
	"github.com/yungbote/skillhub-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/v1/whoami
func (uh *UserHandler) WhoAmI(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondFrom(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": gin.H{
		"handle":      me.Handle,
		"displayName": me.DisplayName,
		"image":       me.Image,
	}})
}
