package database

import (
	"context"
	"fmt"

	"github.com/torspider/torspider/internal/model"
)

// Stats collects a snapshot of the web graph's size and progress.
func (f *FrontierDB) Stats(ctx context.Context) (*model.FrontierStats, error) {
	stats := &model.FrontierStats{}

	counts := []struct {
		query string
		args  []any
		dest  *int
	}{
		{"SELECT COUNT(*) FROM onions", nil, &stats.Onions},
		{"SELECT COUNT(*) FROM onions WHERE online = 1", nil, &stats.OnionsOnline},
		{"SELECT COUNT(*) FROM onions WHERE scan_date > ?", []any{model.NeverScanned}, &stats.OnionsScanned},
		{"SELECT COUNT(*) FROM urls", nil, &stats.URLs},
		{"SELECT COUNT(*) FROM urls WHERE scan_date > ?", []any{model.NeverScanned}, &stats.URLsScanned},
		{"SELECT COUNT(*) FROM urls WHERE fault != ''", nil, &stats.URLsFaulted},
		{"SELECT COUNT(*) FROM pages", nil, &stats.Pages},
		{"SELECT COUNT(*) FROM links", nil, &stats.Links},
		{"SELECT COUNT(*) FROM forms", nil, &stats.FormFields},
	}

	for _, c := range counts {
		if err := f.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count frontier stats: %w", err)
		}
	}

	return stats, nil
}

// VisibleWeb builds the visible-web export: nodes are online domains
// that have been scanned at least once, titled by their front page;
// edges are the links between those nodes, self-loops excluded.
func (f *FrontierDB) VisibleWeb(ctx context.Context) (*model.WebGraph, error) {
	graph := &model.WebGraph{
		Nodes: make([]model.GraphNode, 0),
		Edges: make([]model.GraphEdge, 0),
	}

	nodeQuery := `
	SELECT o.domain, COALESCE(
		(SELECT p.title FROM pages p
		 WHERE p.domain_id = o.id AND p.path IN ('/', '') AND p.title != ''
		 LIMIT 1), ?)
	FROM onions o
	WHERE o.online = 1 AND o.scan_date > ?
	ORDER BY o.domain
	`

	rows, err := f.db.QueryContext(ctx, nodeQuery, model.UnknownTitle, model.NeverScanned)
	if err != nil {
		return nil, fmt.Errorf("failed to query visible domains: %w", err)
	}
	defer rows.Close()

	visible := make(map[string]bool)
	for rows.Next() {
		var node model.GraphNode
		if err := rows.Scan(&node.Domain, &node.Title); err != nil {
			return nil, fmt.Errorf("failed to scan visible domain: %w", err)
		}
		visible[node.Domain] = true
		graph.Nodes = append(graph.Nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visible domains: %w", err)
	}

	edgeQuery := `
	SELECT domain_from, domain_to FROM links
	WHERE domain_from != domain_to
	ORDER BY domain_from, domain_to
	`

	edgeRows, err := f.db.QueryContext(ctx, edgeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge model.GraphEdge
		if err := edgeRows.Scan(&edge.Source, &edge.Target); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if visible[edge.Source] && visible[edge.Target] {
			graph.Edges = append(graph.Edges, edge)
		}
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}

	return graph, nil
}
