package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"market-confluence/src/grpc_control"
	"market-confluence/src/helpers"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
)

const remoteTimeout = 10 * time.Second

var (
	snapshotAt   string
	snapshotGrpc string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the confluence snapshot for an instant",
	Long: `Builds the snapshot locally, or asks a running server over gRPC when
--grpc is given. --at accepts RFC3339 or unix seconds and defaults to now.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotAt, "at", "", "instant to evaluate (RFC3339 or unix seconds)")
	snapshotCmd.Flags().StringVar(&snapshotGrpc, "grpc", "", "address of a running gRPC control server (host:port)")
	rootCmd.AddCommand(snapshotCmd)
}

// -----------------------------------------------------------------------------

func runSnapshot(cmd *cobra.Command, args []string) error {
	at, err := helpers.ParseInstant(snapshotAt, time.Now())
	if err != nil {
		return err
	}

	if snapshotGrpc != "" {
		return remoteSnapshot(cmd.OutOrStdout(), snapshotGrpc, at)
	}

	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	snap, err := a.engine.Build(at, a.params())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), snap)
}

func remoteSnapshot(w io.Writer, addr string, at time.Time) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()

	resp, err := grpc_control.NewControlClient(conn).GetSnapshot(ctx, at.Unix())
	if err != nil {
		return err
	}
	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// -----------------------------------------------------------------------------

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
