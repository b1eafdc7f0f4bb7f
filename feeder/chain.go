package feeder

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	rpcclient "github.com/cometbft/cometbft/rpc/client"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	cmttypes "github.com/cometbft/cometbft/types"
)

const subscriberName = "oracle-feeder"

// ChainClient is the agent's view of a node.
type ChainClient interface {
	// QueryStore serves the raw store query paths read by storequery.Reader.
	QueryStore(ctx context.Context, path string, data []byte) ([]byte, error)

	// BroadcastTx submits an encoded oracle message. A rejected message is
	// returned as the registered error the chain reported.
	BroadcastTx(ctx context.Context, tx []byte) error

	// SubscribeBlocks streams the height of every imported block until ctx
	// is done.
	SubscribeBlocks(ctx context.Context) (<-chan int64, error)
}

var _ ChainClient = (*RPCChainClient)(nil)

// RPCChainClient talks to a CometBFT node over its RPC endpoint.
type RPCChainClient struct {
	client *rpchttp.HTTP
}

// NewRPCChainClient connects to the CometBFT RPC endpoint.
func NewRPCChainClient(endpoint string) (*RPCChainClient, error) {
	client, err := rpchttp.New(endpoint, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}
	return &RPCChainClient{client: client}, nil
}

func (c *RPCChainClient) QueryStore(ctx context.Context, path string, data []byte) ([]byte, error) {
	res, err := c.client.ABCIQueryWithOptions(ctx, path, data, rpcclient.ABCIQueryOptions{})
	if err != nil {
		return nil, err
	}
	if res.Response.IsErr() {
		return nil, errorsmod.ABCIError(res.Response.Codespace, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}

func (c *RPCChainClient) BroadcastTx(ctx context.Context, tx []byte) error {
	res, err := c.client.BroadcastTxSync(ctx, cmttypes.Tx(tx))
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return errorsmod.ABCIError(res.Codespace, res.Code, res.Log)
	}
	return nil
}

func (c *RPCChainClient) SubscribeBlocks(ctx context.Context) (<-chan int64, error) {
	if !c.client.IsRunning() {
		if err := c.client.Start(); err != nil {
			return nil, fmt.Errorf("failed to start websocket: %w", err)
		}
	}

	events, err := c.client.Subscribe(ctx, subscriberName, cmttypes.EventQueryNewBlock.String())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to new blocks: %w", err)
	}

	heights := make(chan int64)
	go func() {
		defer close(heights)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				block, ok := ev.Data.(cmttypes.EventDataNewBlock)
				if !ok || block.Block == nil {
					continue
				}
				select {
				case heights <- block.Block.Height:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return heights, nil
}

// Close drops the block subscription and stops the websocket.
func (c *RPCChainClient) Close(ctx context.Context) error {
	if !c.client.IsRunning() {
		return nil
	}
	if err := c.client.UnsubscribeAll(ctx, subscriberName); err != nil {
		return err
	}
	return c.client.Stop()
}
