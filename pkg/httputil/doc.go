// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNoContent(w)
//
// Error responses:
//
//	httputil.WriteError(w, http.StatusBadRequest, err)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteForbidden(w, "admin group membership required")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req registry.CreateServiceRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path and query parameters:
//
//	serviceID, ok := httputil.ParsePathStringOrError(w, r, "serviceId")
//	format := httputil.ParseQueryString(r, "format", "json")
//
// # Related Packages
//
//   - pkg/server: middleware and routing consuming these helpers
package httputil
