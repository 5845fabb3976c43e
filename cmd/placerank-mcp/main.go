package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/placerank/app"
	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/engine"
	"github.com/use-agent/placerank/logger"
	"github.com/use-agent/placerank/models"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs must stay off it.
	logger.Default = logger.New(os.Stderr, cfg.Log, cfg.Scraper.Debug)
	log := logger.For("mcp")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise strategies")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("strategy shutdown failed")
		}
	}()

	s := newServer(a.Hybrid)
	if err := server.ServeStdio(s); err != nil {
		log.Error().Err(err).Msg("MCP server error")
	}
}

// newServer registers the ranking and review tools on top of st.
func newServer(st engine.Strategy) *server.MCPServer {
	s := server.NewMCPServer(
		"placerank",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	rankingTool := mcp.NewTool("scrape_ranking",
		mcp.WithDescription("Find the search rank of a place listing for a keyword on Naver Place. Returns rank (1-based, null when not in the results), found and the total result count when shown."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("Search keyword, e.g. '카페'"),
		),
		mcp.WithString("region",
			mcp.Description("Optional region appended to the keyword, e.g. '강남'"),
		),
		mcp.WithString("target_listing_id",
			mcp.Required(),
			mcp.Description("Numeric place ID of the listing to locate"),
		),
		mcp.WithString("target_name",
			mcp.Description("Optional listing name used when IDs are unavailable"),
		),
	)
	s.AddTool(rankingTool, handleScrapeRanking(st))

	reviewsTool := mcp.NewTool("scrape_reviews",
		mcp.WithDescription("Fetch the most recent reviews of a place listing on Naver Place."),
		mcp.WithString("listing_id",
			mcp.Required(),
			mcp.Description("Numeric place ID of the listing"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of reviews (default: 10, max: 100)"),
		),
	)
	s.AddTool(reviewsTool, handleScrapeReviews(st))

	return s
}

func handleScrapeRanking(st engine.Strategy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := request.RequireString("keyword")
		if err != nil || strings.TrimSpace(keyword) == "" {
			return mcp.NewToolResultError("keyword is required"), nil
		}
		target, err := request.RequireString("target_listing_id")
		if err != nil || strings.TrimSpace(target) == "" {
			return mcp.NewToolResultError("target_listing_id is required"), nil
		}

		q := models.RankQuery{
			Keyword:         keyword,
			Region:          request.GetString("region", ""),
			TargetListingID: strings.TrimSpace(target),
			TargetName:      request.GetString("target_name", ""),
		}
		res, err := st.ScrapeRanking(ctx, q)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ranking scrape failed: %v", err)), nil
		}
		return jsonResult(res)
	}
}

func handleScrapeReviews(st engine.Strategy) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		listingID, err := request.RequireString("listing_id")
		if err != nil || strings.TrimSpace(listingID) == "" {
			return mcp.NewToolResultError("listing_id is required"), nil
		}
		limit := request.GetInt("limit", 0)
		if limit > 100 {
			limit = 100
		}

		reviews, err := st.ScrapeReviews(ctx, models.ReviewQuery{
			ListingID: strings.TrimSpace(listingID),
			Limit:     limit,
		}.Normalize())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("review scrape failed: %v", err)), nil
		}
		if reviews == nil {
			reviews = []models.ReviewResult{}
		}
		return jsonResult(reviews)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
