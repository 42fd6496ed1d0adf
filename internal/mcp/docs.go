package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `logitrack tracks outgoing orders from the logistics spreadsheet until they are archived.

Core concepts:
- Order: identified by its ref (purchase order, else sales order). Has a channel, client, delivery date/time, status and a checklist of tasks.
- Priority: derived from the delivery date. Expired (past), Urgent (today to 2 days), Medium (3 to 7 days), Normal (later), Low (no date).
- Block: two or more orders handled together. Changing the status of one member changes every member; archiving one archives the block.
- History: archived orders. Only delivered or rejected orders can be archived.

Workflow:
1) Orient with list_orders (optionally per channel).
2) Find orders with search_orders.
3) Mutate with update_status, update_notes, toggle_task, group_orders, ungroup_orders, archive_order.
4) Look up past deliveries with list_history.

Every tool acts as the authenticated user and applies the same permissions as the web dashboard.

Docs:
- logitrack://docs/index
- logitrack://docs/priorities
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "logitrack://docs/index",
		Name:        "docs_index",
		Title:       "logitrack docs index",
		Description: "Tools, permissions and statuses at a glance.",
		Content: `# logitrack

## Tools

| Tool | Permission |
|------|------------|
| ping, list_orders, search_orders, list_history | any user |
| update_status, toggle_task | update_status |
| update_notes | edit_notes |
| group_orders, ungroup_orders | group_orders |
| archive_order | archive_orders |

Regular users only see the channels granted to them; super users see everything.

## Statuses

pending → preparing → in_transit → delivered | partial_reject | total_reject

The last three are final. Final orders are the only ones that can be archived.
`,
	},
	{
		URI:         "logitrack://docs/priorities",
		Name:        "docs_priorities",
		Title:       "Priorities and delivery days",
		Description: "How priority tiers and the today/tomorrow cards are computed.",
		Content: `# Priorities

Tiers count calendar days between today and the delivery day, ignoring the time of day:

- negative: expired
- 0 to 2: urgent
- 3 to 7: medium
- more: normal
- unassigned or unparseable date: low

Tabs: the urgent tab lists expired and urgent orders, upcoming lists medium, normal lists normal and low.

The today and tomorrow cards use the delivery time when present and leave out delivered orders.
Orders of the same block in a card collapse into one row.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
