package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/farmdata/api/handler"
)

func main() {
	apiURL := os.Getenv("FARMDATA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// The key is optional: auth is off unless the server enables it.
	apiKey := os.Getenv("FARMDATA_API_KEY")

	s := newServer(newAPIClient(apiURL, apiKey, 60*time.Second))
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newServer registers every farmdata tool on a new MCP server.
func newServer(c *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"farmdata",
		handler.Version,
		server.WithToolCapabilities(false),
	)
	s.AddTool(searchSchemesTool(), handleSearchSchemes(c))
	s.AddTool(getSchemeDetailsTool(), handleGetSchemeDetails(c))
	s.AddTool(getMarketPricesTool(), handleGetMarketPrices(c))
	s.AddTool(predictPricesTool(), handlePredictPrices(c))
	s.AddTool(checkEligibilityTool(), handleCheckEligibility(c))
	return s
}
