// Package http implements the HTTP handlers of the dashboard server.
// Handlers stay thin: they parse the request, call the dashboard service and
// translate its errors into RFC 7807 problem responses.
//
// # Routes
//
//	GET  /                                 server-rendered dashboard page
//	POST /load/{sample,url,file}           form posts, redirect back to /
//	GET  /api/dashboard                    full dashboard view
//	GET  /api/dashboard/summary            KPIs of the current dataset
//	GET  /api/dashboard/status             status line and dataset identity
//	GET  /api/dashboard/groups/{key}       group averages by state or year
//	GET  /api/dashboard/records            paged records
//	GET  /api/dashboard/charts/{key}.png   bar chart of group averages
//	POST /api/dashboard/load/{sample,url,file}
//	GET  /api/health[/ready|/live]         probes
//	GET  /api/version                      build information
//	GET  /ws                               dataset events
//
// # Error Handling
//
// Service sentinels are mapped to API errors before they reach the shared
// error handler:
//
//	{
//	    "type": "/errors/dataset/not-loaded",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "No dataset has been loaded yet",
//	    "instance": "/api/dashboard"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of the service.
package http
