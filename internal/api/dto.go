package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sololeveling-irl/irl/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("stat", func(fl validator.FieldLevel) bool {
		return domain.StatID(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tasktype", func(fl validator.FieldLevel) bool {
		return domain.TaskType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// decode reads a JSON body into dst and validates its tags. Failures come
// back as *domain.ValidationError.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &domain.ValidationError{Field: fe.Field(), Reason: reason(fe)}
		}
		return &domain.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "stat":
		return fmt.Sprintf("unknown stat %q", fe.Value())
	case "tasktype":
		return fmt.Sprintf("unknown task type %q", fe.Value())
	case "date":
		return "must be YYYY-MM-DD"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
}

// ─── Requests ───────────────────────────────────────────────────────────────

type addTaskRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Stat string `json:"stat" validate:"required,stat"`
	Type string `json:"type" validate:"required,tasktype"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

type addRuleRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Stat       string `json:"stat" validate:"required,stat"`
	Type       string `json:"type" validate:"required,tasktype"`
	Frequency  string `json:"frequency" validate:"required,oneof=DAILY WEEKLY SPECIFIC_DAYS"`
	DayOfWeek  int    `json:"day_of_week" validate:"min=0,max=6"`
	DaysOfWeek []int  `json:"days_of_week" validate:"omitempty,dive,min=0,max=6"`
}

type addScheduledRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Stat string `json:"stat" validate:"required,stat"`
	Type string `json:"type" validate:"required,tasktype"`
	Date string `json:"date" validate:"required,date"`
}

type addTemplateRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Stat     string `json:"stat" validate:"required,stat"`
	Type     string `json:"type" validate:"required,tasktype"`
	Category string `json:"category" validate:"omitempty,oneof=favorites personal"`
}

type selectTitleRequest struct {
	TitleID string `json:"title_id" validate:"required"`
}

type createChallengeRequest struct {
	RecipientID  string `json:"recipient_id" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=STREAK_COMPETITION LEVEL_RACE WEEKLY_LEADERBOARD"`
	Stat         string `json:"stat" validate:"required_if=Type LEVEL_RACE,omitempty,stat"`
	TargetLevel  int    `json:"target_level" validate:"required_if=Type LEVEL_RACE,omitempty,min=2"`
	TargetStreak int    `json:"target_streak" validate:"min=0"`
}

type progressRequest struct {
	Streak int `json:"streak" validate:"min=0"`
	Level  int `json:"level" validate:"min=0"`
	Points int `json:"points" validate:"min=0"`
}
