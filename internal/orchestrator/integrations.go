package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/state"
)

func (o *Orchestrator) recordIntegrationDef() mcp.Tool {
	return mcp.NewTool(ToolRecordIntegration,
		mcp.WithDescription(
			"Record activity from a design or tooling integration: a Drawbridge ingestion {source, url, summary, annotations}, "+
				"a shadcn installation {components, style, command}, a tweakcn palette {name, mode, colors} "+
				"or a Chrome DevTools audit {url, scores, issues}. Logs keep the most recent records only.",
		),
		mcp.WithString("integration",
			mcp.Required(),
			mcp.Description("Integration name"),
			mcp.Enum(state.IntegrationNames...),
		),
		mcp.WithObject("record",
			mcp.Required(),
			mcp.Description("The record, shaped for the integration"),
		),
	)
}

func (o *Orchestrator) handleRecordIntegration(ctx context.Context, args state.Fields) (*Result, error) {
	name := args.String("integration")
	record := args.Map("record")

	var (
		rec state.IntegrationRecord
		err error
	)
	switch name {
	case state.IntegrationDrawbridge:
		var in state.DrawbridgeIngestion
		if err = decodeRecord(record, &in); err == nil {
			rec, err = o.store.RecordDrawbridgeIngestion(ctx, in)
		}
	case state.IntegrationShadcn:
		var in state.ShadcnInstallation
		if err = decodeRecord(record, &in); err == nil {
			rec, err = o.store.RecordShadcnComponentInstallation(ctx, in)
		}
	case state.IntegrationTweakcn:
		var in state.TweakcnPalette
		if err = decodeRecord(record, &in); err == nil {
			rec, err = o.store.ApplyTweakcnPalette(ctx, in)
		}
	case state.IntegrationChromeDevtools:
		var in state.ChromeDevtoolsAudit
		if err = decodeRecord(record, &in); err == nil {
			rec, err = o.store.RecordChromeDevtoolsAudit(ctx, in)
		}
	default:
		return nil, fmt.Errorf("unknown integration %q", name)
	}
	if err != nil {
		return nil, err
	}
	return success(fmt.Sprintf("Recorded %s activity %s.", name, rec.ID), rec)
}

func decodeRecord(record state.Fields, v any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("record does not match the integration shape: %w", err)
	}
	return nil
}

func (o *Orchestrator) integrationLogDef() mcp.Tool {
	return mcp.NewTool(ToolGetIntegrationLog,
		mcp.WithDescription("Get the recorded activity of one integration, oldest first."),
		mcp.WithString("integration",
			mcp.Required(),
			mcp.Description("Integration name"),
			mcp.Enum(state.IntegrationNames...),
		),
	)
}

func (o *Orchestrator) handleIntegrationLog(_ context.Context, args state.Fields) (*Result, error) {
	name := args.String("integration")
	var log state.IntegrationLog
	switch name {
	case state.IntegrationDrawbridge:
		log = o.store.DrawbridgeIngestions()
	case state.IntegrationShadcn:
		log = o.store.ShadcnComponentInstallations()
	case state.IntegrationTweakcn:
		log = o.store.TweakcnPalettes()
	case state.IntegrationChromeDevtools:
		log = o.store.ChromeDevtoolsAudits()
	default:
		log = o.store.Integration(name)
	}
	return success(fmt.Sprintf("%s has %d records.", name, len(log.Records)), log)
}
