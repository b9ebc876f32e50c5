package logging

import (
	"log/slog"
	"time"
)

// Common field names, shared so log queries work across packages.
const (
	FieldService    = "service"
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldEmail      = "email"
	FieldIP         = "ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldTokenClass = "token_class"
	FieldAction     = "action"
	FieldSyllabusID = "syllabus_id"
)

func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

func Email(email string) slog.Attr {
	return slog.String(FieldEmail, email)
}

func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration records d in whole milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error records err's message. A nil error is recorded as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

func TokenClass(class string) slog.Attr {
	return slog.String(FieldTokenClass, class)
}

func Action(action string) slog.Attr {
	return slog.String(FieldAction, action)
}

func SyllabusID(id string) slog.Attr {
	return slog.String(FieldSyllabusID, id)
}
