package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	alertModels "medgate/internal/alert/models"
	"medgate/internal/directory"
	"medgate/internal/jwttoken"
	sessionservice "medgate/internal/session/service"
	"medgate/internal/transport/http/mocks"
	"medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/testutil"
)

func newAlertRouter(t *testing.T, alerts AlertService) (http.Handler, string) {
	t.Helper()
	logger := testutil.DiscardLogger()
	dir := directory.New(directory.WithCost(bcrypt.MinCost))
	require.NoError(t, dir.Seed(directory.DemoUsers(), testPassword))
	sessions := sessionservice.NewStore(func() *sessionservice.Manager {
		return sessionservice.NewManager(dir)
	})
	jwtService := jwttoken.NewJWTService("test-signing-key", "medgate")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	router := NewRouter(logger, validator, nil,
		NewAuthHandler(sessions, jwtService, time.Hour, false, logger),
		NewAlertHandler(sessions, alerts, validator, logger),
	)
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "patient@hospital.org",
		"password": testPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	return router, testutil.UnmarshalResponse[loginBody](t, rr).Token
}

func TestAlertHandlerErrors(t *testing.T) {
	t.Run("internal errors do not leak details", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		alerts := mocks.NewMockAlertService(ctrl)
		router, token := newAlertRouter(t, alerts)

		alerts.EXPECT().Trigger(gomock.Any(), gomock.Any()).Return(nil, errors.New("store exploded"))

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodPost, "/emergency/alerts"), token))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
		assert.NotContains(t, rr.Body.String(), "exploded")
	})

	t.Run("trigger carries the caller identity and request fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		alerts := mocks.NewMockAlertService(ctrl)
		router, token := newAlertRouter(t, alerts)

		alerts.EXPECT().Trigger(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req alertModels.TriggerRequest) (*alertModels.Alert, error) {
				assert.False(t, req.IdentityID.IsNil())
				assert.Equal(t, alertModels.Severity("low"), req.Severity)
				assert.Equal(t, "fall", req.Type)
				return &alertModels.Alert{ID: domain.NewAlertID(), SubjectIdentityID: req.IdentityID, Status: alertModels.StatusActive}, nil
			})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/emergency/alerts", map[string]string{
			"type":     "fall",
			"severity": "low",
		})
		rr := testutil.DoRequest(router, testutil.WithBearer(req, token))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("engine lookup failure surfaces as unavailable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		alerts := mocks.NewMockAlertService(ctrl)
		router, token := newAlertRouter(t, alerts)

		id := domain.NewAlertID()
		alerts.EXPECT().Get(gomock.Any(), id).Return(nil, dErrors.New(dErrors.CodeUnavailable, "alert store unavailable"))

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodPost, "/emergency/alerts/"+id.String()+"/cancel"), token))
		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
	})

	t.Run("malformed id is rejected before the engine is called", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		alerts := mocks.NewMockAlertService(ctrl)
		router, token := newAlertRouter(t, alerts)

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodPost, "/emergency/alerts/xyz/resolve"), token))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
