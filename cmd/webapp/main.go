//go:build js && wasm
// +build js,wasm

package main

import (
	"github.com/drummonds/gobrewer/webapp"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

func main() {
	// Same routes as the server side; all use the App component
	webapp.RegisterRoutes()

	// This main function is for the WASM build only
	// It initializes the go-app when running in the browser
	app.RunWhenOnBrowser()
}
