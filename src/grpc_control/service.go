package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/interfaces"
	"market-confluence/src/logger"
	"market-confluence/src/snapshot"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlService answers engine queries over gRPC. Requests carry an instant
// in unix seconds; zero means now.
type ControlService struct {
	Engine *snapshot.Engine
	Store  interfaces.IEventStore
	Params snapshot.Params
	Logger *logger.Logger
	now    func() time.Time
}

// NewControlService creates a new instance of ControlService
func NewControlService(engine *snapshot.Engine, store interfaces.IEventStore, params snapshot.Params, log *logger.Logger) *ControlService {
	return &ControlService{
		Engine: engine,
		Store:  store,
		Params: params,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetSnapshot(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	snap, err := s.Engine.Build(s.instant(req), s.Params)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(snap)
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetMacroOutlook(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	days, err := s.Engine.MacroOutlook(s.instant(req), s.Params.MacroHorizonDays)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(map[string]interface{}{
		"horizon_days": s.Params.MacroHorizonDays,
		"days":         days,
	})
}

// -----------------------------------------------------------------------------

// GetRecentEvents reads the event journal; the request value is the limit.
func (s *ControlService) GetRecentEvents(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.Struct, error) {
	if s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "event journal is disabled")
	}
	events, err := s.Store.RecentEvents(int(req.GetValue()), "")
	if err != nil {
		s.Logger.Error("gRPC: failed to read events: %v", err)
		return nil, grpcError(err)
	}
	return toStruct(map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// -----------------------------------------------------------------------------

func (s *ControlService) instant(req *wrapperspb.Int64Value) time.Time {
	if secs := req.GetValue(); secs != 0 {
		return time.Unix(secs, 0).UTC()
	}
	return s.now()
}

// toStruct converts v through its JSON form so the wire shape matches the
// HTTP API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func grpcError(err error) error {
	var validationErr *helpers.ValidationError
	if errors.As(err, &validationErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	var dbErr *helpers.DatabaseError
	if errors.As(err, &dbErr) {
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
