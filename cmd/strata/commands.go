// Copyright 2026 StrataDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/stratadb/strata/api"
	"github.com/stratadb/strata/client"
)

func apiClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"))
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Insert documents into a layer",
		ArgsUsage: "FILE [FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "layer",
				Usage:    "Target layer name",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "skip-existing",
				Usage: "Skip documents whose content is already stored",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one file is required")
			}

			var docs []api.Document
			for _, path := range c.Args().Slice() {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				docs = append(docs, api.Document{
					Content:  string(raw),
					Metadata: map[string]string{"source": path},
				})
			}

			resp, err := apiClient(c).Insert(c.Context, c.String("layer"), api.InsertRequest{
				Documents:    docs,
				SkipExisting: c.Bool("skip-existing"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("total=%d succeeded=%d failed=%d skipped=%d\n",
				resp.Total, resp.Succeeded, resp.Failed, resp.Skipped)
			for _, ie := range resp.Errors {
				fmt.Printf("  document %d: %s\n", ie.DocIndex, ie.Error)
			}
			if resp.Failed > 0 {
				return fmt.Errorf("%d document(s) failed", resp.Failed)
			}
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Query the layer stack",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Query mode (naive, local, global, hybrid)",
				Value: "hybrid",
			},
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Maximum vector matches per layer",
			},
			&cli.StringSliceFlag{
				Name:  "layer",
				Usage: "Restrict to the named layer(s)",
			},
			&cli.BoolFlag{
				Name:  "merge",
				Usage: "Merge results into one document",
			},
			&cli.BoolFlag{
				Name:  "priority",
				Usage: "Query layers sequentially by priority instead of fanning out",
			},
			&cli.BoolFlag{
				Name:  "stop-at-first",
				Usage: "With --priority, stop at the first layer that answers",
			},
			&cli.Float64Flag{
				Name:  "min-confidence",
				Usage: "With --priority, minimum score for an answer to qualify",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one query argument is required")
			}
			query := c.Args().First()

			if c.Bool("priority") {
				resp, err := apiClient(c).QueryPriority(c.Context, api.PriorityQueryRequest{
					Query:         query,
					Mode:          c.String("mode"),
					TopK:          c.Int("top-k"),
					StopAtFirst:   c.Bool("stop-at-first"),
					MinConfidence: c.Float64("min-confidence"),
				})
				if err != nil {
					return err
				}
				if resp.Result == nil {
					fmt.Println("no layer produced a qualifying answer")
					return nil
				}
				fmt.Printf("[%s] (priority %d, score %.2f)\n%s\n",
					resp.Result.Layer, resp.Result.Priority, resp.Result.Score, resp.Result.Text)
				return nil
			}

			resp, err := apiClient(c).Query(c.Context, api.QueryRequest{
				Query:      query,
				Mode:       c.String("mode"),
				TopK:       c.Int("top-k"),
				OnlyLayers: c.StringSlice("layer"),
				Merge:      c.Bool("merge"),
			})
			if err != nil {
				return err
			}

			if c.Bool("merge") {
				fmt.Println(resp.Merged)
				return nil
			}
			if len(resp.Results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for _, res := range resp.Results {
				fmt.Printf("[%s] (priority %d, score %.2f)\n%s\n\n",
					res.Layer, res.Priority, res.Score, res.Text)
			}
			return nil
		},
	}
}

func layersCommand() *cli.Command {
	return &cli.Command{
		Name:  "layers",
		Usage: "Inspect and administer layers",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List configured layers",
				Action: func(c *cli.Context) error {
					layers, err := apiClient(c).Layers(c.Context)
					if err != nil {
						return err
					}
					for _, d := range layers {
						state := "enabled"
						if !d.Enabled {
							state = "disabled"
						}
						fmt.Printf("%-20s priority=%-3d namespace=%-20s %s\n",
							d.Name, d.Priority, d.Namespace, state)
					}
					return nil
				},
			},
			{
				Name:      "stats",
				Usage:     "Show layer counters",
				ArgsUsage: "[LAYER]",
				Action: func(c *cli.Context) error {
					cl := apiClient(c)
					if c.NArg() == 1 {
						info, err := cl.LayerStats(c.Context, c.Args().First())
						if err != nil {
							return err
						}
						printLayerInfo(*info)
						return nil
					}

					all, err := cl.Stats(c.Context)
					if err != nil {
						return err
					}
					names := make([]string, 0, len(all))
					for name := range all {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						printLayerInfo(all[name])
					}
					return nil
				},
			},
			{
				Name:      "clear",
				Usage:     "Reset a layer's counters (stored data is kept)",
				ArgsUsage: "LAYER",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("exactly one layer name is required")
					}
					return apiClient(c).Clear(c.Context, c.Args().First())
				},
			},
			{
				Name:      "rebuild",
				Usage:     "Finalize and re-initialize a layer's storage",
				ArgsUsage: "LAYER",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("exactly one layer name is required")
					}
					return apiClient(c).Rebuild(c.Context, c.Args().First())
				},
			},
			{
				Name:      "update",
				Usage:     "Update a layer's descriptor",
				ArgsUsage: "LAYER",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.IntFlag{Name: "priority", Usage: "New priority (lower is queried first)"},
					&cli.BoolFlag{Name: "enabled", Usage: "Enable or disable the layer"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("exactly one layer name is required")
					}

					var req api.UpdateLayerRequest
					if c.IsSet("description") {
						v := c.String("description")
						req.Description = &v
					}
					if c.IsSet("priority") {
						v := c.Int("priority")
						req.Priority = &v
					}
					if c.IsSet("enabled") {
						v := c.Bool("enabled")
						req.Enabled = &v
					}
					if req.Description == nil && req.Priority == nil && req.Enabled == nil {
						return fmt.Errorf("nothing to update: pass at least one flag")
					}
					return apiClient(c).UpdateLayer(c.Context, c.Args().First(), req)
				},
			},
		},
	}
}

func printLayerInfo(info api.LayerInfo) {
	fmt.Printf("%-20s priority=%-3d documents=%-6d entities=%-6d queries=%-6d status=%s\n",
		info.Name, info.Priority, info.Documents, info.Entities, info.Queries, info.Status)
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server and backend health",
		Action: func(c *cli.Context) error {
			resp, err := apiClient(c).Health(c.Context)
			if err != nil {
				return err
			}

			fmt.Printf("status: %s\n", resp.Status)
			keys := make([]string, 0, len(resp.Backends))
			for key := range resp.Backends {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				state := "up"
				if !resp.Backends[key] {
					state = "down"
				}
				fmt.Printf("  %-30s %s\n", key, state)
			}
			if resp.Status != "ok" {
				return fmt.Errorf("service is %s", resp.Status)
			}
			return nil
		},
	}
}
