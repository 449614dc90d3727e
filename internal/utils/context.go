package utils

import (
	"context"

	"github.com/Jimix91/ticketflow/internal/models"
)

func GetInt64(ctx context.Context, key any) (int64, bool) {
	v, ok := ctx.Value(key).(int64)
	return v, ok
}

func GetRole(ctx context.Context, key any) (models.Role, bool) {
	v, ok := ctx.Value(key).(models.Role)
	return v, ok
}
