// Package validation wraps go-playground/validator for struct tag validation
// and offers a small Checker for rules tags cannot express.
//
// Both return FieldErrors; callers decide which errors.AppError code the
// failure maps to.
//
//	type Envelope struct {
//	    ID   string `json:"id" validate:"required"`
//	    Type string `json:"type" validate:"required"`
//	}
//	if err := validation.Validate(env); err != nil { ... }
//
//	err := validation.NewChecker().
//	    Check(cfg.Interval < cfg.Timeout, "heartbeat_check_interval", "must be less than heartbeat_timeout").
//	    Err()
package validation
