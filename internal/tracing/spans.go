package tracing

// Span attribute keys.
const (
	AttrActionName     = "action.name"
	AttrPayloadType    = "action.payload_type"
	AttrInvocationID   = "invocation.id"
	AttrIdempotencyKey = "invocation.idempotency_key"
	AttrErrorKind      = "error.kind"
)

// SpanPrefixInvoke prefixes the span created for each invocation.
const SpanPrefixInvoke = "action.invoke."

// SpanPrefixReject prefixes the span recorded for a rejected invocation.
const SpanPrefixReject = "action.reject."
