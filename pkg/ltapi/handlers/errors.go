package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/txn2/linkterm/pkg/ltapi/types"
)

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, types.Response{
		Success: false,
		Error: &types.ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
