// Package pcoclient provides the main entry point for creating connections to
// the Planning Center API.
//
// Personal access token:
//
//	conn, err := pcoclient.NewWithPersonalAccessToken(ctx, "", appID, secret)
//
// OAuth2 application with a refresh token:
//
//	conn, err := pcoclient.New(ctx, &pco.Config{
//	  ClientID:     clientID,
//	  ClientSecret: clientSecret,
//	  RefreshToken: refreshToken,
//	})
//
// The returned connection is handed to pco.NewResourceType or to the
// people catalogue.
package pcoclient
