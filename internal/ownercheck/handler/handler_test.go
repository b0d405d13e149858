package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"namecheck/internal/ownercheck/handler/mocks"
	"namecheck/internal/ownercheck/models"
	dErrors "namecheck/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type CheckHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestCheckHandlerSuite(t *testing.T) {
	suite.Run(t, new(CheckHandlerSuite))
}

func (s *CheckHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *CheckHandlerSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *CheckHandlerSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/check_bank_name", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const validBody = `{"account_number":" 0123456789 ","bank_name":"VCB","account_name":"Nguyễn Văn A"}`

func (s *CheckHandlerSuite) expectVerdict(v models.Verdict) {
	s.service.EXPECT().
		Check(gomock.Any(), models.LookupRequest{AccountNumber: "0123456789", BankHint: "VCB", ClaimedName: "Nguyễn Văn A"}).
		Return(v, nil)
}

func (s *CheckHandlerSuite) TestVerdictShapes() {
	tests := []struct {
		name    string
		verdict models.Verdict
		want    string
	}{
		{
			name:    "match",
			verdict: models.Verdict{Matched: true, SourceBank: "ACB", Attempted: []string{"ACB"}},
			want:    `{"result":true,"bank":"ACB"}`,
		},
		{
			name:    "mismatch",
			verdict: models.Verdict{TrueName: "TRANTHIB", SourceBank: "Techcombank"},
			want:    `{"result":false,"true_name":"TRANTHIB","bank":"Techcombank"}`,
		},
		{
			name:    "timeout",
			verdict: models.Verdict{Message: "timeout", Attempted: []string{"ACB", "Techcombank"}},
			want:    `{"result":false,"message":"timeout"}`,
		},
		{
			name:    "inconclusive",
			verdict: models.Verdict{Attempted: []string{"ACB", "Techcombank"}},
			want:    `{"result":false}`,
		},
		{
			name:    "failure",
			verdict: models.Verdict{Failure: "no bank adapters configured"},
			want:    `"no bank adapters configured"`,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.expectVerdict(tt.verdict)

			w := s.post(validBody)

			s.Equal(http.StatusOK, w.Code)
			s.Equal("application/json", w.Header().Get("Content-Type"))
			s.JSONEq(tt.want, w.Body.String())
		})
	}
}

func (s *CheckHandlerSuite) TestInvalidRequests() {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"account_number":`, "bad_request"},
		{"missing account number", `{"bank_name":"VCB","account_name":"A"}`, "validation_error"},
		{"blank bank name", `{"account_number":"1","bank_name":"  ","account_name":"A"}`, "validation_error"},
		{"missing account name", `{"account_number":"1","bank_name":"VCB"}`, "validation_error"},
		{"oversized account number", `{"account_number":"` + strings.Repeat("1", 40) + `","bank_name":"VCB","account_name":"A"}`, "validation_error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.post(tt.body)

			s.Equal(http.StatusBadRequest, w.Code)
			var resp map[string]string
			s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			s.Equal(tt.code, resp["error"])
			s.NotEmpty(resp["error_description"])
		})
	}
}

func (s *CheckHandlerSuite) TestServiceError() {
	s.service.EXPECT().Check(gomock.Any(), gomock.Any()).
		Return(models.Verdict{}, dErrors.New(dErrors.CodeValidation, "account_name is required"))

	w := s.post(validBody)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *CheckHandlerSuite) TestRequestContextReachesService() {
	s.service.EXPECT().Check(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.LookupRequest) (models.Verdict, error) {
			s.NoError(ctx.Err())
			return models.Verdict{Matched: true, SourceBank: "ACB"}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/check_bank_name", bytes.NewReader([]byte(validBody)))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
}
