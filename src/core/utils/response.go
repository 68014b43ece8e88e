package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UnifiedResponse 统一响应结构体
type UnifiedResponse struct {
	Code    int         `json:"code"`              // HTTP状态码
	Success bool        `json:"success"`           // 是否成功
	Message string      `json:"message,omitempty"` // 消息描述
	Data    interface{} `json:"data,omitempty"`    // 数据负载
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, UnifiedResponse{
		Code:    http.StatusOK,
		Success: true,
		Message: "操作成功",
		Data:    data,
	})
}

// Error 返回错误响应
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, UnifiedResponse{
		Code:    statusCode,
		Success: false,
		Message: message,
	})
}

// Custom 返回自定义响应，不改变传入结构的内部格式
func Custom(c *gin.Context, statusCode int, data interface{}) {
	success := statusCode >= 200 && statusCode < 300
	c.JSON(statusCode, UnifiedResponse{
		Code:    statusCode,
		Success: success,
		Data:    data,
	})
}
