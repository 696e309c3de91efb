package service

import (
	"errors"
	"fmt"

	"github.com/msomdec/image-gallery/internal/domain"
)

// translate is applied once to every error leaving the service layer. Domain
// errors keep their code and gain the operation name; anything else is an
// unexpected internal fault.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return domain.Wrap(domain.CodeUnexpected, op, err)
}
