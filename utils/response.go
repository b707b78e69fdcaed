package utils

import "github.com/gin-gonic/gin"

// JSONResponse is the envelope every endpoint answers with. Code 0 means
// success; non-zero codes identify the specific failure path.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const successCode = 0

// Respond writes the envelope with an explicit HTTP status.
func Respond(ctx *gin.Context, status, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{Code: code, Message: message, Data: data})
}

// Success answers 200 with the standard success envelope around data.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, successCode, "success", data)
}

// Error answers with the given HTTP status and a per-call failure code so
// clients and logs can tell apart failures sharing a status.
func Error(ctx *gin.Context, status, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
