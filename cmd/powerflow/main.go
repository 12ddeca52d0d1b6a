package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"power-system-analysis/network"
	"power-system-analysis/powerflow"
)

func main() {
	err := run(os.Args[1:], os.Stdout, log.Default())
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("powerflow", flag.ContinueOnError)
	casePath := fs.String("case", "", "算例文件路径 (JSON)")
	printY := fs.Bool("print-admittance", false, "输出节点导纳矩阵")
	maxIter := fs.Int("max-iterations", 0, "迭代上限, 覆盖算例中的配置")
	// 用法与参数错误随日志输出, 默认即 stderr
	fs.SetOutput(logger.Writer())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *casePath == "" {
		return fmt.Errorf("未指定算例文件 (-case)")
	}

	c, err := network.LoadCase(*casePath)
	if err != nil {
		return fmt.Errorf("读取算例失败: %w", err)
	}
	cfg, err := solverConfig(c.Solver)
	if err != nil {
		return fmt.Errorf("解析求解器配置失败: %w", err)
	}
	if *maxIter > 0 {
		cfg.MaxIterations = *maxIter
	}

	branches, err := c.AllBranches()
	if err != nil {
		return fmt.Errorf("形成断面失败: %w", err)
	}
	snap, err := c.Snapshot()
	if err != nil {
		return fmt.Errorf("形成断面失败: %w", err)
	}
	logger.Printf("[Main] loaded %d buses, %d branches from %s", snap.Len(), len(branches), *casePath)
	if *printY {
		fmt.Fprint(out, snap.Admittance())
		fmt.Fprintln(out)
	}

	solver, err := powerflow.New(snap, cfg, powerflow.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := solver.Solve(); err != nil {
		return err
	}
	logger.Printf("[Main] solver %s finished in %d iterations", solver.ID(), solver.Iterations())

	printResult(out, solver.Ordered())
	return nil
}

// solverConfig 在默认配置上覆盖算例中的 solver 字段
func solverConfig(raw json.RawMessage) (powerflow.Config, error) {
	cfg := powerflow.DefaultConfig()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func printResult(out io.Writer, est powerflow.Estimates) {
	fmt.Fprintf(out, "%-6s%-8s%12s%12s%12s%12s\n", "bus", "type", "|V|", "angle", "P", "Q")
	for _, e := range est.List {
		fmt.Fprintf(out, "%-6d%-8s%12.6f%12.4f", e.Bus.Number, e.Type, e.Bus.Magnitude(), e.Bus.Angle()*180/math.Pi)
		// 平衡节点与 PV 节点输出电源功率
		if e.Type == powerflow.Swing || e.Type == powerflow.Generation {
			s := e.Injection()
			fmt.Fprintf(out, "%12.6f%12.6f", real(s), imag(s))
		}
		fmt.Fprintln(out)
	}
}
