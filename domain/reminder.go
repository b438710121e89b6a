package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDelay is the longest countdown a reminder may be armed with (2^31-1 ms).
const MaxDelay = time.Duration(math.MaxInt32) * time.Millisecond

// UserError is a failure caused by the request itself. Its text is shown to
// the requester as is.
type UserError struct {
	msg string
}

func (e *UserError) Error() string { return e.msg }

func UserErrorf(format string, args ...any) *UserError {
	return &UserError{msg: fmt.Sprintf(format, args...)}
}

var (
	ErrTimeNotUnderstood = &UserError{"I couldn't understand the time for the reminder."}
	ErrNoTask            = &UserError{"You didn't provide a task for the reminder."}
	ErrNotInFuture       = &UserError{"The reminder time must be in the future."}
	ErrTooFarAhead       = &UserError{"Sorry, I can only set reminders up to ~24 days in the future."}
	ErrNothingToCancel   = &UserError{"You have no active reminders to cancel."}
	ErrNothingInGroup    = &UserError{"You have no active reminders in this group to cancel."}
	ErrNotSetter         = &UserError{"You can only cancel reminders that you have set yourself."}
)

// IndexError reports a selection number outside 1..Max.
type IndexError struct {
	Max int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("Please provide a valid number from 1 to %d.", e.Max)
}

// IsUserError reports whether err should be shown to the requester verbatim.
func IsUserError(err error) bool {
	var ue *UserError
	var ie *IndexError
	return errors.As(err, &ue) || errors.As(err, &ie)
}

// Reminder is a pending personal reminder. Rows are deleted once fired or
// cancelled, so Delivered is always false in the store.
type Reminder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID   int64              `bson:"owner_id"`
	ChatID    int64              `bson:"chat_id"`
	Text      string             `bson:"text"`
	FireAt    time.Time          `bson:"fire_at"`
	Delivered bool               `bson:"delivered"`
}

func NewReminder(ownerID, chatID int64, text string, fireAt time.Time) Reminder {
	return Reminder{
		ID:      primitive.NewObjectID(),
		OwnerID: ownerID,
		ChatID:  chatID,
		Text:    text,
		FireAt:  fireAt,
	}
}

// TeamReminder is a pending group reminder. Delivery goes to every member of
// ChatID known at fire time.
type TeamReminder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	SetterID  int64              `bson:"setter_id"`
	ChatID    int64              `bson:"chat_id"`
	Text      string             `bson:"text"`
	FireAt    time.Time          `bson:"fire_at"`
	Delivered bool               `bson:"delivered"`
}

func NewTeamReminder(setterID, chatID int64, text string, fireAt time.Time) TeamReminder {
	return TeamReminder{
		ID:       primitive.NewObjectID(),
		SetterID: setterID,
		ChatID:   chatID,
		Text:     text,
		FireAt:   fireAt,
	}
}

// TeamKey identifies one setter's reminders inside one group.
type TeamKey struct {
	ChatID   int64
	SetterID int64
}
