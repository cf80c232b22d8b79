package main

import (
	"fmt"

	"github.com/plus3/ecsworld/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ScriptSystem runs a Lua script's on_tick(dt, count) function in fixed steps.
// count is the number of spawned entities; a positive number returned by
// on_tick removes that many of them.
//
// The script may call log(message) to write to the world's logger.
type ScriptSystem struct {
	ecs.IntervalSystem
	vm       *lua.LState
	onTick   lua.LValue
	entities *ecs.Family
	log      *zap.Logger
	calls    int64
	failures int64
	removed  int64
}

func newScriptSystem(path string, step float64) ecs.SystemFactory {
	return func(w *ecs.World) (ecs.System, error) {
		s := &ScriptSystem{
			IntervalSystem: ecs.NewIntervalSystem(ecs.Fixed(step)),
			vm:             lua.NewState(),
			entities:       w.Family(ecs.AllOf(ecs.GetStore[Archetype](w).Type())),
			log:            w.Logger().Named("script"),
		}
		s.vm.SetGlobal("API_VERSION", lua.LNumber(1))
		s.vm.SetGlobal("log", s.vm.NewFunction(s.luaLog))

		if err := s.vm.DoFile(path); err != nil {
			s.vm.Close()
			return nil, fmt.Errorf("load script %s: %w", path, err)
		}
		s.onTick = s.vm.GetGlobal("on_tick")
		if s.onTick.Type() != lua.LTFunction {
			s.vm.Close()
			return nil, fmt.Errorf("script %s does not define on_tick", path)
		}
		s.log.Debug("loaded lua script", zap.String("file", path))
		return s, nil
	}
}

func (s *ScriptSystem) OnTick() {
	s.calls++
	err := s.vm.CallByParam(lua.P{
		Fn:      s.onTick,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(s.DeltaTime()), lua.LNumber(s.entities.Len()))
	if err != nil {
		s.failures++
		s.log.Error("lua on_tick error", zap.Error(err))
		return
	}

	result := s.vm.Get(-1)
	s.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok || n <= 0 {
		return
	}
	for i, e := range s.entities.Entities() {
		if i >= int(n) {
			break
		}
		s.World().Remove(e)
		s.removed++
	}
}

func (s *ScriptSystem) OnDispose() {
	s.log.Info("script finished",
		zap.Int64("calls", s.calls),
		zap.Int64("failures", s.failures),
		zap.Int64("removed", s.removed),
	)
	s.vm.Close()
}

func (s *ScriptSystem) luaLog(L *lua.LState) int {
	s.log.Info(L.CheckString(1))
	return 0
}
