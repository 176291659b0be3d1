package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/waypoint-agents/server/internal/agent/model"
	"github.com/waypoint-agents/server/internal/agent/trip"
	"github.com/waypoint-agents/server/internal/httpapi"
	logx "github.com/waypoint-agents/server/pkg/logger"
)

type planFlags struct {
	start          string
	destination    string
	end            string
	budget         string
	days           int
	people         int
	parallel       bool
	rejectRevisits bool
}

func (f planFlags) tripRequest() (model.TripRequest, error) {
	budget, err := model.ParseBudget(f.budget)
	if err != nil {
		return model.TripRequest{}, err
	}
	end := f.end
	if end == "" {
		end = f.start
	}
	return model.TripRequest{
		StartLocation:      f.start,
		TouristDestination: f.destination,
		EndLocation:        end,
		Budget:             budget,
		TotalDays:          f.days,
		NumberOfPeople:     f.people,
	}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "waypoint",
		Short: "Waypoint - day by day travel itineraries from cooperating agents",
		Long: `Waypoint plans a trip one day at a time. For every day a transport, a
sightseeing, a hotel and a next-destination agent are consulted, and the
notes are finally turned into a readable itinerary.`,
		SilenceUsage: true,
	}
	root.AddCommand(newPlanCmd(), newShowCmd(), newListCmd(), newServeCmd())
	return root
}

func newPlanCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate an itinerary and print it",
		Example: `  waypoint plan --start Kolkata --destination Sikkim --end Kolkata \
    --budget "1000 USD" --days 2 --people 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadBaseConfig()
			if err != nil {
				return err
			}
			initLogger(base)

			out := cmd.OutOrStdout()
			req, err := f.tripRequest()
			if err != nil {
				fmt.Fprintln(out, trip.FailureText(err))
				return err
			}

			agents, err := loadAgentConfig()
			if err != nil {
				fmt.Fprintln(out, trip.FailureText(err))
				return err
			}
			if cmd.Flags().Changed("parallel") {
				agents.Planner.ParallelLookups = f.parallel
			}
			if cmd.Flags().Changed("reject-revisits") {
				agents.Planner.RejectRevisits = f.rejectRevisits
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, base, agents, false)
			if err != nil {
				fmt.Fprintln(out, trip.FailureText(err))
				return err
			}
			defer a.Close()

			it, err := a.service.Generate(ctx, req)
			if err != nil {
				fmt.Fprintln(out, trip.FailureText(err))
				return err
			}
			printItinerary(out, it, a.rdb != nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.start, "start", "", "start location")
	cmd.Flags().StringVar(&f.destination, "destination", "", "tourist destination")
	cmd.Flags().StringVar(&f.end, "end", "", "end location (defaults to the start location)")
	cmd.Flags().StringVar(&f.budget, "budget", "", `total budget, e.g. "1000", "1000 INR" or "$1000"`)
	cmd.Flags().IntVar(&f.days, "days", 1, "total days")
	cmd.Flags().IntVar(&f.people, "people", 1, "number of people")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "run transport, sightseeing and hotel lookups concurrently")
	cmd.Flags().BoolVar(&f.rejectRevisits, "reject-revisits", false, "treat an already visited next destination as a failed step")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func printItinerary(w io.Writer, it *model.Itinerary, persisted bool) {
	fmt.Fprintln(w, it.Text())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Estimated model cost: $%.4f\n", it.CostUSD)
	if persisted {
		fmt.Fprintf(w, "Itinerary id: %s\n", it.ID)
	}
}

func newShowCmd() *cobra.Command {
	var notes bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored itinerary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadBaseConfig()
			if err != nil {
				return err
			}
			initLogger(base)

			rdb, store, err := openStore(cmd.Context(), base)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("REDIS_URL is not set")
			}
			defer rdb.Close()

			it, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, it.Text())
			if notes {
				fmt.Fprintln(out)
				fmt.Fprintln(out, it.Narrative)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&notes, "notes", false, "also print the day by day notes")
	return cmd
}

func newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently generated itineraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadBaseConfig()
			if err != nil {
				return err
			}
			initLogger(base)

			rdb, store, err := openStore(cmd.Context(), base)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("REDIS_URL is not set")
			}
			defer rdb.Close()

			list, err := store.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, it := range list {
				fmt.Fprintf(out, "%s  %s  %s -> %s  %dd  %d people\n",
					it.ID,
					it.CreatedAt.Format(time.RFC3339),
					it.Request.StartLocation,
					it.Request.TouristDestination,
					it.Request.TotalDays,
					it.Request.NumberOfPeople,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of itineraries")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the itinerary API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadBaseConfig()
			if err != nil {
				return err
			}
			initLogger(base)

			agents, err := loadAgentConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, base, agents, true)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:              base.HTTPAddr,
				Handler:           httpapi.NewServer(a.service, a.metrics.Handler()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logx.Info().Str("addr", base.HTTPAddr).Msg("HTTP server listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logx.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
