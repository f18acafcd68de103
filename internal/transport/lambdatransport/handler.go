package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/awmpietro/golang-bayes-inference-case/internal/app"
	"github.com/awmpietro/golang-bayes-inference-case/internal/transport/querydto"
)

type Handler struct {
	svc app.QueryService
}

func NewHandler(svc app.QueryService) *Handler {
	return &Handler{svc: svc}
}

// Handle routes API Gateway requests ending in /joint to Joint and
// everything else to Query.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if strings.HasSuffix(strings.TrimRight(req.RawPath, "/"), "/joint") {
		return h.Joint(ctx, req)
	}
	return h.Query(ctx, req)
}

func (h *Handler) Query(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in querydto.QueryRequest
	if resp, ok := decode(req, &in); !ok {
		return resp, nil
	}

	res, err := h.svc.Query(in.ToApp())
	if err != nil {
		return jsonResp(http.StatusBadRequest, querydto.QueryErrorBody(err, res)), nil
	}
	return jsonResp(http.StatusOK, querydto.NewQueryResponse(res)), nil
}

func (h *Handler) Joint(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in querydto.JointRequest
	if resp, ok := decode(req, &in); !ok {
		return resp, nil
	}

	p, info, err := h.svc.Joint(in.ToApp())
	if err != nil {
		return jsonResp(http.StatusBadRequest, querydto.ErrorBody("joint failed", err, nil, info)), nil
	}
	return jsonResp(http.StatusOK, querydto.JointResponse{Probability: p, Network: info}), nil
}

func decode(req events.APIGatewayV2HTTPRequest, dst any) (events.APIGatewayV2HTTPResponse, bool) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, querydto.ErrorBody("invalid body", err, nil, nil)), false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return jsonResp(http.StatusBadRequest, querydto.ErrorBody("invalid json", err, nil, nil)), false
	}
	if err := querydto.Validate(dst); err != nil {
		return jsonResp(http.StatusBadRequest, querydto.ErrorBody("invalid request", err, nil, nil)), false
	}
	return events.APIGatewayV2HTTPResponse{}, true
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       `{"error":"failed to encode response"}`,
		}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
