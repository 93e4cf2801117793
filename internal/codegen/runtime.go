// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

// Runtime snippets are opaque, pre-written Lua templates prepended to
// generated output on demand (spec.md §4.7). They are never parsed or
// type-checked by this compiler; they are plain text.

const bitwiseHelperPreamble = `
local __bit_band, __bit_bor, __bit_bxor, __bit_bnot, __bit_lshift, __bit_rshift
do
  local function tobits(n)
    local bits = {}
    n = math.floor(n) % 4294967296
    for i = 1, 32 do
      bits[i] = n % 2
      n = math.floor(n / 2)
    end
    return bits
  end
  local function frombits(bits)
    local n = 0
    for i = 32, 1, -1 do
      n = n * 2 + bits[i]
    end
    return n
  end
  __bit_band = function(a, b)
    local ab, bb = tobits(a), tobits(b)
    local r = {}
    for i = 1, 32 do r[i] = (ab[i] == 1 and bb[i] == 1) and 1 or 0 end
    return frombits(r)
  end
  __bit_bor = function(a, b)
    local ab, bb = tobits(a), tobits(b)
    local r = {}
    for i = 1, 32 do r[i] = (ab[i] == 1 or bb[i] == 1) and 1 or 0 end
    return frombits(r)
  end
  __bit_bxor = function(a, b)
    local ab, bb = tobits(a), tobits(b)
    local r = {}
    for i = 1, 32 do r[i] = (ab[i] ~= bb[i]) and 1 or 0 end
    return frombits(r)
  end
  __bit_bnot = function(a)
    local ab = tobits(a)
    local r = {}
    for i = 1, 32 do r[i] = ab[i] == 1 and 0 or 1 end
    return frombits(r)
  end
  __bit_lshift = function(a, n) return math.floor(a * 2 ^ n) % 4294967296 end
  __bit_rshift = function(a, n) return math.floor(a / 2 ^ n) end
end
`

const classSupportPreamble = `
local function __class_new(cls, ...)
  local self = setmetatable({}, cls)
  if cls.__ctor then cls.__ctor(self, ...) end
  return self
end
`

const richEnumSupportPreamble = `
local function __enum_new(def, name, ...)
  local member = setmetatable({ __name = name }, def)
  if def.__ctor then def.__ctor(member, ...) end
  return member
end
`

const decoratorSupportPreamble = `
local function __apply_decorators(target, decorators)
  for i = #decorators, 1, -1 do
    target = decorators[i](target)
  end
  return target
end
`

const reflectionSupportPreamble = `
__TypeRegistry = __TypeRegistry or {}
local function __register_type(name, base, members)
  __TypeRegistry[name] = { name = name, base = base, members = members }
end
local function assertType(value, typeId)
  local mt = getmetatable(value)
  local seen = mt and mt.__typeName
  while seen do
    if seen == typeId then return value end
    local info = __TypeRegistry[seen]
    seen = info and info.base
  end
  error("assertType: value is not a " .. typeId)
end
`

const bundleRequirePreamble = `
local __modules, __loaded = {}, {}
local function __require(name)
  if __loaded[name] ~= nil then return __loaded[name] end
  local loader = __modules[name]
  if not loader then error("module not found: " .. name) end
  local result = loader()
  __loaded[name] = result
  return result
end
`
