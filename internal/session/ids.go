package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripIDs generates trip ids of the form TRP-XXXXXX
type TripIDs struct{}

func (TripIDs) New() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRP-" + strings.ToUpper(hex[:6])
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Severity) {}

type nopRenderer struct{}

func (nopRenderer) ClearRoute() {}
func (nopRenderer) ShowEndpoints(_, _ Coordinate) {}
func (nopRenderer) ShowRoute(PlannedRoute) {}
func (nopRenderer) SetTripStartEnabled(bool) {}
func (nopRenderer) ShowTripID(string) {}
func (nopRenderer) ShowPosition(LiveProgress) {}
func (nopRenderer) Reset() {}
