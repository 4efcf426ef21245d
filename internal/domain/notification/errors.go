package notification

import (
	"fmt"

	"github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
)

func invalidTransition(op string, from, to lifecycle.Status) error {
	return aggregates.NewError(aggregates.CodeBusinessRule, op,
		fmt.Sprintf("invalid state transition %s -> %s", from, to), nil)
}
