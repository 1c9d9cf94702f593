// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeResourceMemoryExhausted Code = "resource.memory.exhausted"
	CodeResourceProbeFailure    Code = "resource.probe.failure"

	CodeIngestInputInvalid     Code = "ingest.input.invalid"
	CodeIngestContentInvalid   Code = "ingest.content.invalid"
	CodeIngestPipelineFailure  Code = "ingest.pipeline.failure"
	CodeIngestWatchdogTimeout  Code = "ingest.watchdog.timeout"
	CodeIngestDocumentConflict Code = "ingest.document.conflict"

	CodePDFExtractEncrypted Code = "pdf.extract.encrypted"
	CodePDFExtractEmpty     Code = "pdf.extract.empty"
	CodePDFExtractCorrupt   Code = "pdf.extract.corrupt"
	CodePDFExtractTooLarge  Code = "pdf.extract.too_large"
	CodePDFExtractNoText    Code = "pdf.extract.no_text"
	CodePDFOpenNotFound     Code = "pdf.open.not_found"

	CodeEmbedModelFailure   Code = "embed.model.failure"
	CodeEmbedRequestInvalid Code = "embed.request.invalid"

	CodeIndexDimensionInvalid   Code = "index.dimension.invalid"
	CodeIndexWriteFailure       Code = "index.write.failure"
	CodeIndexReadFailure        Code = "index.read.failure"
	CodeIndexBackendUnsupported Code = "index.backend.unsupported"

	CodeStorePersistFailure   Code = "store.persist.failure"
	CodeStoreRestoreFailure   Code = "store.restore.failure"
	CodeStoreLoadMismatch     Code = "store.load.mismatch"
	CodeStoreDocumentNotFound Code = "store.document.not_found"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeProviderRequestInvalid  Code = "provider.request.invalid"
	CodeProviderResponseInvalid Code = "provider.response.invalid"
	CodeProviderUpstreamFailure Code = "provider.upstream.failure"
	CodeProviderNotFound        Code = "provider.registry.not_found"
	CodeProviderInitFailure     Code = "provider.registry.init_failure"
	CodeProviderNoDefault       Code = "provider.routing.no_default"
	CodeProviderKeyInvalid      Code = "provider.key.invalid"
	CodeProviderKeyCheckFailed  Code = "provider.key.check_failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerEntityNotFound  Code = "server.entity.not_found"
	CodeServerConfigInvalid   Code = "server.config.invalid"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"
	CodeServerRateExceeded    Code = "server.rate.exceeded"
	CodeServerPayloadTooLarge Code = "server.payload.too_large"

	CodeCLIRequestFailure Code = "cli.request.failure"
	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIInputInvalid   Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// FieldValue creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldPath(value string) Attr {
	return Field("path", value)
}

func FieldFile(value string) Attr {
	return Field("file", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

// CodeOf returns the innermost code in the chain, or "" for plain errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsPDFRejected reports whether a document was refused during text extraction.
func IsPDFRejected(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "pdf.extract.")
}

func IsResourceExhausted(err error) bool {
	return reason(CodeOf(err)) == "exhausted"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err), IsPDFRejected(err):
		return http.StatusBadRequest
	case HasCode(err, CodeServerPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case HasCode(err, CodeServerRateExceeded):
		return http.StatusTooManyRequests
	case IsResourceExhausted(err):
		return http.StatusServiceUnavailable
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
