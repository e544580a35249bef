// Package workers
package workers

import "context"

type Worker interface {
	Name() string
	Run(ctx context.Context) error
}
