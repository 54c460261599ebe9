// Package api implements the HTTP calculator endpoints.
//
// New(service, registry) returns an http.Handler that serves:
//
//	POST /calculate_mdrd_gfr — form body (serum_creatinine, age, sex, race);
//	                           {"egfr": "65.5 ml/min/1.73 m² (Estimated GFR by MDRD)"}
//	POST /calculate          — JSON body (serum_creatinine, age,
//	                           biological_sex|sex, race and/or race_is_black);
//	                           {"egfr": 65.5}
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-POST methods, 400 for undecodable bodies
//   - Return 422 {"error": "validation failed", "fields": [...]} when any
//     input is missing, malformed or out of bounds
//   - Allow every origin, method and header (see CORS)
//
// Service holds the active Policy (bounds and rounding mode) behind an
// atomic pointer so config reloads take effect without locking requests.
// No external HTTP framework is used.
package api
