package utils

import (
	"context"

	"github.com/gin-gonic/gin"

	er "github.com/outreachcrm/sendpool/internal/errors"
)

type CustomContext struct {
	AppSource string
	Workspace string
	UserId    string
}

var customContextKey = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		Workspace: c.GetString("WorkspaceId"),
		UserId:    c.GetString("UserId"),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetWorkspaceFromContext(ctx context.Context) string {
	return GetContext(ctx).Workspace
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetContext(ctx).UserId
}

func SetWorkspaceInContext(ctx context.Context, workspace string) context.Context {
	customContext := GetContext(ctx)
	customContext.Workspace = workspace
	return WithCustomContext(ctx, customContext)
}

func ValidateWorkspace(ctx context.Context) error {
	if GetWorkspaceFromContext(ctx) == "" {
		return er.ErrWorkspaceMissing
	}
	return nil
}
