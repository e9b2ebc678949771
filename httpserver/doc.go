/*
Package httpserver implements the HTTP front of the AML oracle service.

It exposes the full oracle operation set over JSON endpoints. The server does
not authenticate callers itself: the caller identity arrives in the
X-AML-Caller header, placed there by the deployment's authenticating front
proxy, and every privileged operation is role-gated inside the oracle core.
The handler only translates identities, payloads and sentinel errors.

# Public Endpoints

  - GET /api/public/status/{client}/{target}/metadata - Record timestamp and current fetch fee
  - GET /api/public/roles/{role}/members - Role holders in grant order
  - GET /api/public/fees/default - Fallback query fee
  - GET /api/public/fees/account - Fee collection account
  - GET /api/public/escrow/{account} - Escrow balance of an identity
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Client Endpoints

Caller identity from the X-AML-Caller header:

  - POST /api/client/ask - Advisory request for an assessment
  - POST /api/client/fetch - Fetch an assessment, charging the fee; the body
    selects direct settlement on deployments that offer it
  - POST /api/client/deposit - Prepay escrow
  - POST /api/client/withdraw - Return escrowed funds

# Admin Endpoints

Role-gated inside the core, not at the router:

  - POST /api/admin/status - Record or overwrite an assessment
  - DELETE /api/admin/status/{client}/{target} - Remove an assessment
  - POST /api/admin/notify - One-way advisory to a client
  - POST /api/admin/roles/grant - Add a principal to a role
  - POST /api/admin/roles/revoke - Remove a principal from a role
  - POST /api/admin/fees/default - Update the fallback fee
  - POST /api/admin/fees/account - Designate the fee collection account
  - POST /api/admin/recover - Transfer stray assets out of custody

# Error Mapping

Sentinel errors of the core map onto HTTP status codes: unauthorized callers
get 403, insufficient balance or an exceeded fee ceiling get 402, missing
records get 404, validation failures get 400 and recovery with nothing to
recover gets 409.
*/
package httpserver
