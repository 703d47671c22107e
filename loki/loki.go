// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loki ships log lines to a Grafana Loki instance. It implements
// io.Writer so it can sit behind zerolog's MultiLevelWriter; lines are
// batched and pushed over the JSON API.
package loki

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	contentType  = "application/json"
	postPath     = "/loki/api/v1/push"
	maxErrMsgLen = 1024
)

type row struct {
	ts   time.Time
	line string
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type pushRequest struct {
	Streams []*stream `json:"streams"`
}

type Loki struct {
	LokiURL   string
	BatchWait time.Duration
	BatchSize int
	lineChan  chan *row
	execEnv   string
	wg        sync.WaitGroup
}

// Init routes the global logger through a Loki writer in addition to
// stdout. Called after SetupLogging when log.loki_url is configured.
func Init() {
	w, err := New(viper.GetString("log.loki_url"), 102400, 1)
	if err != nil {
		log.Error().Err(err).Msg("could not create loki writer")
		return
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(os.Stdout, w))
}

func New(URL string, batchSize, batchWait int) (*Loki, error) {
	l := &Loki{
		LokiURL:   URL,
		BatchSize: batchSize,
		BatchWait: time.Duration(batchWait) * time.Second,
		lineChan:  make(chan *row, 1024),
	}

	if execEnv, ok := os.LookupEnv("EXECUTION_ENVIRONMENT"); ok {
		l.execEnv = execEnv
	} else {
		l.execEnv = "test"
	}

	u, err := url.Parse(l.LokiURL)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(u.Path, postPath) {
		u.Path = postPath
		q := u.Query()
		u.RawQuery = q.Encode()
		l.LokiURL = u.String()
	}
	l.wg.Add(1)
	go l.run()
	return l, nil
}

func (l *Loki) Close() {
	close(l.lineChan)
	l.wg.Wait()
}

// Write queues one serialized log line. The slice is owned by zerolog and
// reused after Write returns, so the line is copied here.
func (l *Loki) Write(p []byte) (int, error) {
	select {
	case l.lineChan <- &row{ts: time.Now(), line: string(p)}:
	default:
		// drop rather than block logging when the shipper is behind
	}
	return len(p), nil
}

// levelOf pulls the level field back out of the serialized line so it can
// become a stream label
func levelOf(line string) string {
	var fields struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(line), &fields); err != nil || fields.Level == "" {
		return "info"
	}
	return fields.Level
}

func (l *Loki) run() {
	var (
		lastPktTime time.Time
		maxWait     = time.NewTimer(l.BatchWait)
		batch       = map[string]*stream{}
		batchSize   = 0
	)
	defer l.wg.Done()

	defer func() {
		if err := l.sendBatch(batch); err != nil {
			fmt.Fprintf(os.Stderr, "%v ERROR: loki flush: %v\n", time.Now(), err)
		}
	}()

	for {
		select {
		case ll, ok := <-l.lineChan:
			if !ok {
				return
			}
			curPktTime := ll.ts
			// guard against entry out of order errors
			if lastPktTime.After(curPktTime) {
				curPktTime = time.Now()
			}
			lastPktTime = curPktTime

			if batchSize+len(ll.line) > l.BatchSize {
				if err := l.sendBatch(batch); err != nil {
					fmt.Fprintf(os.Stderr, "%v ERROR: send size batch: %v\n", lastPktTime, err)
				}
				batchSize = 0
				batch = map[string]*stream{}
				maxWait.Reset(l.BatchWait)
			}

			batchSize += len(ll.line)
			level := levelOf(ll.line)
			s, ok := batch[level]
			if !ok {
				s = &stream{
					Stream: map[string]string{"level": level, "env": l.execEnv},
				}
				batch[level] = s
			}
			s.Values = append(s.Values, [2]string{
				strconv.FormatInt(curPktTime.UnixNano(), 10),
				ll.line,
			})

		case <-maxWait.C:
			if len(batch) > 0 {
				if err := l.sendBatch(batch); err != nil {
					fmt.Fprintf(os.Stderr, "%v ERROR: send time batch: %v\n", lastPktTime, err)
				}
				batchSize = 0
				batch = map[string]*stream{}
			}
			maxWait.Reset(l.BatchWait)
		}
	}
}

func (l *Loki) sendBatch(batch map[string]*stream) error {
	if len(batch) == 0 {
		return nil
	}
	buf, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = l.send(ctx, buf)
	if err != nil {
		return err
	}
	return nil
}

func encodeBatch(batch map[string]*stream) ([]byte, error) {
	req := pushRequest{
		Streams: make([]*stream, 0, len(batch)),
	}
	for _, s := range batch {
		req.Streams = append(req.Streams, s)
	}
	return json.Marshal(&req)
}

func (l *Loki) send(ctx context.Context, buf []byte) (int, error) {
	req, err := http.NewRequest("POST", l.LokiURL, bytes.NewReader(buf))
	if err != nil {
		return -1, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxErrMsgLen))
		line := ""
		if scanner.Scan() {
			line = scanner.Text()
		}
		err = fmt.Errorf("server returned HTTP status %s (%d): %s", resp.Status, resp.StatusCode, line)
	}
	return resp.StatusCode, err
}
