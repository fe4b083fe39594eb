package regsvc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"dcp-ai.org/dcp/bundle"
	"dcp-ai.org/dcp/canonical"
	"dcp-ai.org/dcp/storage"
)

// Server exposes an envelope store over the EnvelopeRegistry gRPC service.
//
// When PublicKeyB64 is set, the server verifies every envelope before
// archiving it and refuses those that fail; the registry then only ever
// holds bundles that verified against the configured signer key. When it is
// empty, Put archives without verification and Verify reports
// missing_public_key.
type Server struct {
	UnimplementedRegistryServer
	Store storage.CAS

	// PublicKeyB64 is the base64 Ed25519 key envelopes must verify against.
	PublicKeyB64 string
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing envelope store")
	}
	raw := in.GetValue()

	canon, err := canonical.Transform(raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "envelope is not valid JSON")
	}

	if s.PublicKeyB64 != "" {
		report := bundle.VerifyJSON(canon, s.PublicKeyB64)
		if !report.Verified {
			msg := storage.ErrUnverified.Error()
			if len(report.Failures) > 0 {
				msg = report.Failures[0].String()
			}
			return nil, status.Error(codes.FailedPrecondition, msg)
		}
	}

	// Enforce the store's CID contract on the server side too.
	expected, err := storage.CIDForBytes(canon)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	id, err := s.Store.Put(canon)
	if err != nil {
		return nil, mapErr(err)
	}
	if id != expected {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing envelope store")
	}
	id, err := storage.DecodeCID(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.Store.Get(id)
	if err != nil {
		return nil, mapErr(err)
	}
	got, err := storage.CIDForBytes(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if got != id {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing envelope store")
	}
	id, err := storage.DecodeCID(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return wrapperspb.Bool(s.Store.Has(id)), nil
}

func (s *Server) Verify(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing server")
	}
	report := bundle.VerifyJSON(in.GetValue(), s.PublicKeyB64)
	out, err := json.Marshal(report)
	if err != nil {
		return nil, status.Error(codes.Internal, "report encoding failed")
	}
	return wrapperspb.String(string(out)), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case err == storage.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case err == storage.ErrInvalidCID:
		return status.Error(codes.InvalidArgument, err.Error())
	case err == storage.ErrCIDMismatch:
		return status.Error(codes.DataLoss, err.Error())
	case err == storage.ErrImmutable:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
