package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
)

func newPublicFixture(t *testing.T) (*fakeStore, *PublicHandler, *echo.Echo) {
	t.Helper()
	store := newFakeStore()
	return store, NewPublicHandler(attendance.NewRSVPService(store), store), echo.New()
}

func TestAvailability(t *testing.T) {
	store, h, e := newPublicFixture(t)
	ev := store.addEvent(freeEvent(1, uint32p(5)))
	for _, uid := range []uint64{7, 8} {
		r := model.RSVP{UserID: uid, EventID: ev.ID}
		require.NoError(t, store.CreateRSVP(context.Background(), &r))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/events/1/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Availability(withEventID(c, ev.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["attendee_count"])
	assert.EqualValues(t, 5, body["capacity"])
	assert.EqualValues(t, 3, body["remaining"])
}

func TestAvailabilityUnlimitedCapacity(t *testing.T) {
	store, h, e := newPublicFixture(t)
	ev := store.addEvent(freeEvent(1, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/events/1/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Availability(withEventID(c, ev.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotContains(t, body, "capacity")
	assert.NotContains(t, body, "remaining")
}

func TestAvailabilityUnknownEvent(t *testing.T) {
	_, h, e := newPublicFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/events/9/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Availability(withEventID(c, 9)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
