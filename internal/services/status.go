// Package services – response validation and status parsing
//
// CheckResponse and ParseStatus turn an untyped status API answer into the
// chat text for the most recent homework. Both classify failures with
// domain kinds so the poller can report and count them.
package services

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/homework-bot/internal/domain"
)

// CheckResponse verifies that resp carries a "homeworks" list and returns it.
func CheckResponse(resp domain.APIResponse) ([]any, error) {
	const op = "services.CheckResponse"

	raw, ok := resp[domain.FieldHomeworks]
	if !ok {
		return nil, domain.E(domain.KindProtocol, op, domain.ErrMissingHomeworks)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, domain.E(domain.KindProtocol, op, &domain.TypeError{
			Field: domain.FieldHomeworks,
			Want:  "array",
			Got:   domain.JSONTypeName(raw),
		})
	}
	return list, nil
}

// ParseStatus builds the status change message for one homework record.
//
// Checks run in order: the record is an object, "status" is present,
// "homework_name" is present and a string, and the status has a verdict.
func ParseStatus(hw any) (string, error) {
	const op = "services.ParseStatus"

	rec, ok := hw.(domain.HomeworkRecord)
	if !ok {
		return "", domain.E(domain.KindData, op, &domain.TypeError{
			Field: domain.FieldHomeworks + "[0]",
			Want:  "object",
			Got:   domain.JSONTypeName(hw),
		})
	}

	for _, field := range []string{domain.FieldStatus, domain.FieldHomeworkName} {
		if _, ok := rec[field]; !ok {
			err := domain.E(domain.KindData, op, &domain.MissingFieldError{Field: field})
			log.Error().Err(err).Str("field", field).Msg("homework record is incomplete")
			return "", err
		}
	}

	name, ok := rec[domain.FieldHomeworkName].(string)
	if !ok {
		return "", domain.E(domain.KindData, op, &domain.TypeError{
			Field: domain.FieldHomeworkName,
			Want:  "string",
			Got:   domain.JSONTypeName(rec[domain.FieldHomeworkName]),
		})
	}

	status, ok := rec[domain.FieldStatus].(string)
	if !ok {
		err := domain.E(domain.KindData, op, fmt.Errorf("%w: %s value", domain.ErrUnknownStatus,
			domain.JSONTypeName(rec[domain.FieldStatus])))
		log.Debug().Err(err).Msg("homework status is not a string")
		return "", err
	}
	verdict, err := domain.Verdict(status)
	if err != nil {
		log.Debug().Str("status", status).Str("homework", name).Msg("unknown homework status")
		return "", domain.E(domain.KindData, op, err)
	}

	return domain.StatusChangeMessage(name, verdict), nil
}
