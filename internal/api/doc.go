// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package api provides the HTTP surface of the sync server.

Routes:

	GET    /                       service name, version and route catalog
	GET    /health                 {"status":"ok","timestamp":...}
	GET    /api/ws/{query}         websocket stream of snapshot frames
	GET    /api/rest/{query}       current snapshot, once
	POST   /api/rest/lift          upsert a lift
	DELETE /api/rest/lift?id=      delete a lift
	DELETE /api/rest/lifts         delete every lift
	POST   /api/rest/variation     upsert a variation
	DELETE /api/rest/variation?id= delete a variation
	DELETE /api/rest/variations    delete every variation, or one lift's with ?liftId=
	POST   /api/rest/sets          upsert a set
	DELETE /api/rest/sets          delete every set, one set with ?id=, or a
	                               variation's sets with ?variationId=
	POST   /api/rest/workout       upsert a workout
	DELETE /api/rest/workout?id=   delete a workout
	POST   /api/rest/goal          upsert a goal
	DELETE /api/rest/goal?id=      delete a goal

Every non-stream response uses the models.APIResponse envelope. Errors
carry a code derived from the models error taxonomy, so clients can map a
status back to ErrBadRequest, ErrNotFound and friends.

Queries:

A query is a name from models.QueryNames plus URL parameters. Unknown
parameters are dropped, and a query missing its required id is rejected
with 400 before any websocket upgrade.

Middleware:

Global: request id, real IP, panic recovery, CORS, Prometheus. The REST
group adds a per-IP httprate limit; streams are exempt.
*/
package api
