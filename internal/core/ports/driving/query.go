package driving

import (
	"context"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

// QueryService routes a natural-language query to search or answer mode
type QueryService interface {
	// Route classifies the query, retrieves candidates and either returns
	// matching files or a synthesised, cited answer
	Route(ctx context.Context, query string) (*domain.RoutedResponse, error)
}
